package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	"freelanceflow/internal/log"
)

// TaskInput is a new task as submitted by a user.
type TaskInput struct {
	Title    string            `json:"title"`
	Priority core.TaskPriority `json:"priority"`
	DueDate  time.Time         `json:"dueDate"`
}

// AddTask creates a pending task.
func (w *Workspace) AddTask(ctx context.Context, userID string, in TaskInput) (core.Task, error) {
	task := core.Task{
		ID:       uuid.NewString(),
		Title:    strings.TrimSpace(in.Title),
		Priority: in.Priority,
		DueDate:  in.DueDate,
		Status:   core.StatusPending,
	}
	if task.Priority == "" {
		task.Priority = core.PriorityMedium
	}
	if err := task.Validate(); err != nil {
		return core.Task{}, err
	}
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		d.Tasks = append(d.Tasks, task)
		return nil, nil
	})
	if err != nil {
		return core.Task{}, err
	}
	return task, nil
}

// ChangeTaskStatus applies a status transition and its effects: reminder
// bookkeeping and the completion bonus.
func (w *Workspace) ChangeTaskStatus(ctx context.Context, userID, id string, to core.TaskStatus) (core.Task, []core.Effect, error) {
	var (
		updated core.Task
		effects []core.Effect
	)
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		i := d.TaskIndex(id)
		if i < 0 {
			return nil, ErrNotFound
		}
		from := d.Tasks[i].Status
		next, effs, err := core.Transition(d.Tasks[i], to, w.rules.XP)
		if err != nil {
			return nil, err
		}
		d.Tasks[i] = next
		updated, effects = next, effs

		evs := []pending{{events.TaskStatusChanged, events.TaskStatusPayload{TaskID: id, From: from, To: to}}}
		for _, e := range effs {
			switch e.Kind {
			case core.EffectReminderScheduled:
				evs = append(evs, pending{events.ReminderScheduled, events.ReminderPayload{
					TaskID:       id,
					Title:        next.Title,
					ReminderDate: e.ReminderDate,
				}})
			case core.EffectXPGranted:
				d.XP += e.XP
				evs = append(evs, pending{events.XPGranted, events.XPPayload{Delta: e.XP, Total: d.XP, Reason: "task_done"}})
			}
		}
		return evs, nil
	})
	if err != nil {
		return core.Task{}, nil, err
	}
	w.logger.InfoContext(ctx, "Task status changed",
		log.FieldUserID, userID,
		log.FieldTaskID, id,
		log.FieldTaskStatus, string(to))
	return updated, effects, nil
}

func (w *Workspace) DeleteTask(ctx context.Context, userID, id string) error {
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		i := d.TaskIndex(id)
		if i < 0 {
			return nil, ErrNotFound
		}
		d.Tasks = slices.Delete(d.Tasks, i, i+1)
		return nil, nil
	})
	return err
}

// ListTasks returns the tasks matching f, pending first then by due date.
func (w *Workspace) ListTasks(ctx context.Context, userID string, f core.TaskFilter) ([]core.Task, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, core.ErrUnknownStatus
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, core.ErrInvalidPriority
	}
	d, err := w.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.SortTasks(core.FilterTasks(d.Tasks, f)), nil
}

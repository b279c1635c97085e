package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"freelanceflow/internal/core"
	"freelanceflow/internal/storage"
	"freelanceflow/internal/storage/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestStoreFromDir(t *testing.T) {
	dir := t.TempDir()
	storetest.Run(t, func(t *testing.T) storage.Store {
		s, err := NewFromDir(filepath.Join(dir, t.Name()))
		if err != nil {
			t.Fatalf("NewFromDir: %v", err)
		}
		return s
	})
}

func TestStoreFromDirSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir: %v", err)
	}
	data := core.NewUserData("Ada", time.Now())
	data.XP = 99
	if err := first.SaveUserData(ctx, "local-user", data); err != nil {
		t.Fatalf("SaveUserData: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ff_data_local-user.json")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	second, _ := NewFromDir(dir)
	got, found, err := second.LoadUserData(ctx, "local-user")
	if err != nil || !found || got.XP != 99 {
		t.Fatalf("LoadUserData after restart = %v %v %v", got.XP, found, err)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	data := core.NewUserData("Ada", time.Now())
	if err := s.SaveUserData(ctx, "u1", data); err != nil {
		t.Fatalf("SaveUserData: %v", err)
	}
	got, _, _ := s.LoadUserData(ctx, "u1")
	got.Pots[0].Name = "changed"
	again, _, _ := s.LoadUserData(ctx, "u1")
	if again.Pots[0].Name == "changed" {
		t.Fatal("store leaked internal state")
	}
}

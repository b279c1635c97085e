package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"freelanceflow/internal/core"
)

type fakeModel struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []Request
}

func (f *fakeModel) Generate(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

// gatedModel holds every call until release is closed.
type gatedModel struct {
	arrived chan struct{}
	release chan struct{}
}

func (g *gatedModel) Generate(_ context.Context, req Request) (string, error) {
	g.arrived <- struct{}{}
	<-g.release
	return "reply to " + req.Messages[len(req.Messages)-1].Text, nil
}

const validAnalysis = `{"baseline":3000,"buffer":1500,"allocation_rules":[{"name":"Taxes","percentage":25}],"predicted_deficit":false,"recommended_actions":[{"title":"Raise rates","why":"margin","how":"email clients"}]}`

func TestAdvisor_ChatKeepsConversation(t *testing.T) {
	model := &fakeModel{replies: []string{"hello", "sure"}}
	a := NewAdvisor(model, nil)
	ctx := context.Background()

	if _, err := a.Chat(ctx, "u1", "hi"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	reply, err := a.Chat(ctx, "u1", "help me")
	if err != nil || reply != "sure" {
		t.Fatalf("Chat = %q, %v", reply, err)
	}

	last := model.requests[1]
	if last.System != ChatInstruction {
		t.Error("chat should carry the advisor instruction")
	}
	if len(last.Messages) != 3 || last.Messages[1].Role != RoleModel || last.Messages[2].Text != "help me" {
		t.Errorf("conversation not replayed: %+v", last.Messages)
	}
	if got := len(a.History("u1")); got != 4 {
		t.Errorf("History len = %d, want 4", got)
	}
	if got := len(a.History("u2")); got != 0 {
		t.Errorf("other users share history: %d", got)
	}
}

func TestAdvisor_ConcurrentChatsKeepEveryExchange(t *testing.T) {
	model := &gatedModel{arrived: make(chan struct{}, 2), release: make(chan struct{})}
	a := NewAdvisor(model, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, msg := range []string{"first", "second"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Chat(ctx, "u1", msg); err != nil {
				t.Errorf("Chat(%q): %v", msg, err)
			}
		}()
	}
	<-model.arrived
	<-model.arrived
	close(model.release)
	wg.Wait()

	h := a.History("u1")
	if len(h) != 4 {
		t.Fatalf("History len = %d, want 4: %+v", len(h), h)
	}
	seen := map[string]bool{}
	for i := 0; i < len(h); i += 2 {
		if h[i].Role != RoleUser || h[i+1].Role != RoleModel || h[i+1].Text != "reply to "+h[i].Text {
			t.Errorf("exchange %d out of order: %+v", i/2, h[i:i+2])
		}
		seen[h[i].Text] = true
	}
	if !seen["first"] || !seen["second"] {
		t.Errorf("lost an exchange: %+v", h)
	}
}

func TestAdvisor_ChatResetsAfterFailure(t *testing.T) {
	model := &fakeModel{}
	a := NewAdvisor(model, nil)
	ctx := context.Background()

	a.Chat(ctx, "u1", "hi")
	model.err = errors.New("quota exceeded")
	if _, err := a.Chat(ctx, "u1", "again"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Chat error = %v, want ErrUnavailable", err)
	}
	if len(a.History("u1")) != 0 {
		t.Error("conversation should be reset after a failure")
	}
}

func TestAdvisor_ChatValidation(t *testing.T) {
	if _, err := NewAdvisor(nil, nil).Chat(context.Background(), "u1", "hi"); !errors.Is(err, ErrDisabled) {
		t.Errorf("disabled advisor error = %v", err)
	}
	if _, err := NewAdvisor(&fakeModel{}, nil).Chat(context.Background(), "u1", "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("blank message error = %v", err)
	}
}

func TestAdvisor_Analyze(t *testing.T) {
	model := &fakeModel{replies: []string{"```json\n" + validAnalysis + "\n```"}}
	a := NewAdvisor(model, nil)
	in := core.AnalysisInput{Balance: decimal.RequireFromString("1234.5")}

	got, err := a.Analyze(context.Background(), "u1", in)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !got.Baseline.Equal(decimal.NewFromInt(3000)) || len(got.RecommendedActions) != 1 {
		t.Errorf("Analyze() = %+v", got)
	}
	req := model.requests[0]
	if !req.JSON || !strings.Contains(req.Messages[0].Text, "1234.50 EUR") {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{name: "bare object", reply: validAnalysis},
		{name: "with prose", reply: "Here you go: " + validAnalysis + " Good luck."},
		{name: "no json", reply: "I cannot help", wantErr: true},
		{name: "missing lists", reply: `{"baseline":1,"buffer":1,"predicted_deficit":true}`, wantErr: true},
		{name: "broken json", reply: `{"baseline": }`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAnalysis() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeminiModel_Generate(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Bon"},{"text":"jour"}]}}]}`)
	}))
	defer srv.Close()

	m, err := NewGeminiModel(context.Background(), "key", "gemini-2.5-flash", option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewGeminiModel: %v", err)
	}
	reply, err := m.Generate(context.Background(), Request{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Text: "hi"}},
		JSON:     true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "Bonjour" {
		t.Errorf("reply = %q", reply)
	}
	if !strings.HasSuffix(gotPath, "models/gemini-2.5-flash:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if _, ok := gotBody["systemInstruction"]; !ok {
		t.Errorf("system instruction not sent: %v", gotBody)
	}
}

func TestNewGeminiModelRequiresKey(t *testing.T) {
	if _, err := NewGeminiModel(context.Background(), "", "m"); !errors.Is(err, ErrDisabled) {
		t.Errorf("error = %v", err)
	}
}

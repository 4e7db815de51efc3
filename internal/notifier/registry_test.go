package notifier

import (
	"context"
	"errors"
	"testing"
)

type mockNotifier struct {
	name       string
	sent       []Message
	shouldFail bool
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Init(cfg Config) error { return nil }

func (m *mockNotifier) Send(ctx context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	if m.shouldFail {
		return errors.New("send failed")
	}
	return nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	if err := r.Register(mock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicate registration should fail
	if err := r.Register(mock); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNotifier{name: "test"})

	n, err := r.Get("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name() != "test" {
		t.Errorf("expected name 'test', got '%s'", n.Name())
	}

	if _, err := r.Get("nonexistent"); err == nil {
		t.Error("expected error for nonexistent notifier")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNotifier{name: "webhook"})
	r.Register(&mockNotifier{name: "email"})

	names := r.Names()
	if len(names) != 2 || names[0] != "email" || names[1] != "webhook" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestRegistry_Notify(t *testing.T) {
	r := NewRegistry()
	tg := &mockNotifier{name: "telegram"}
	wa := &mockNotifier{name: "whatsapp", shouldFail: true}
	mail := &mockNotifier{name: "email"}
	r.Register(tg)
	r.Register(wa)
	r.Register(mail)

	errs := r.Notify(context.Background(), []string{"telegram", "whatsapp", "sms"}, Message{Text: "hi"})

	if len(tg.sent) != 1 || len(wa.sent) != 1 {
		t.Error("selected notifiers should have been called")
	}
	if len(mail.sent) != 0 {
		t.Error("unselected notifier should not be called")
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs["whatsapp"] == nil || errs["sms"] == nil {
		t.Errorf("expected errors for whatsapp and sms, got %v", errs)
	}
}

func TestRegistry_NotifyAll(t *testing.T) {
	r := NewRegistry()
	ok := &mockNotifier{name: "ok"}
	fail := &mockNotifier{name: "fail", shouldFail: true}
	r.Register(ok)
	r.Register(fail)

	errs := r.NotifyAll(context.Background(), Message{Text: "hi"})

	if len(ok.sent) != 1 || len(fail.sent) != 1 {
		t.Error("all notifiers should be called")
	}
	if len(errs) != 1 || errs["fail"] == nil {
		t.Errorf("expected one error for 'fail', got %v", errs)
	}
}

func TestParams(t *testing.T) {
	params := map[string]any{
		"token": "abc",
		"port":  587,
		"to":    []any{"a@x.io", "b@x.io"},
		"hdr":   map[string]any{"X-Key": "v"},
		"empty": "",
		"csv":   "k1:9092, k2:9092,",
	}

	if v, ok := StringParam(params, "token"); !ok || v != "abc" {
		t.Errorf("StringParam = %q, %v", v, ok)
	}
	if _, ok := StringParam(params, "empty"); ok {
		t.Error("empty string should not count as set")
	}
	if v, ok := IntParam(params, "port"); !ok || v != 587 {
		t.Errorf("IntParam = %d, %v", v, ok)
	}
	if v, ok := StringsParam(params, "to"); !ok || len(v) != 2 {
		t.Errorf("StringsParam = %v, %v", v, ok)
	}
	if v, ok := StringsParam(params, "csv"); !ok || len(v) != 2 || v[1] != "k2:9092" {
		t.Errorf("StringsParam csv = %v, %v", v, ok)
	}
	if _, ok := StringsParam(params, "empty"); ok {
		t.Error("empty string should not count as set")
	}
	if v, ok := StringMapParam(params, "hdr"); !ok || v["X-Key"] != "v" {
		t.Errorf("StringMapParam = %v, %v", v, ok)
	}
}

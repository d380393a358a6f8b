// internal/poller/poller_test.go
package poller

import (
	"context"
	"testing"
	"time"

	cfg "github.com/tamzrod/qrc-bridge/internal/config"
	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

type fakeQueue struct {
	cmds    []protocol.Command
	resolve bool
}

func (f *fakeQueue) submit(c protocol.Command) <-chan bool {
	f.cmds = append(f.cmds, c)
	ch := make(chan bool, 1)
	if f.resolve {
		ch <- true
	}
	return ch
}

func names(n ...string) Names {
	return func() []string { return n }
}

func TestPollOnce_Bundled(t *testing.T) {
	q := &fakeQueue{resolve: true}
	p, err := New(Config{Interval: time.Second, Bundle: true}, names("a", "b", "c"), q.submit)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Commands != 1 || res.Controls != 3 {
		t.Fatalf("expected 1 command for 3 controls, got %+v", res)
	}
	if q.cmds[0].Method != protocol.MethodControlGet || q.cmds[0].Kind != protocol.KindGet {
		t.Fatalf("unexpected command %+v", q.cmds[0])
	}
	got := q.cmds[0].Params.([]string)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected params %v", got)
	}
}

func TestPollOnce_PerName(t *testing.T) {
	q := &fakeQueue{resolve: true}
	p, err := New(Config{Interval: time.Second}, names("a", "b"), q.submit)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Commands != 2 {
		t.Fatalf("expected 2 commands, got %d", res.Commands)
	}
	if got := q.cmds[1].Params.([]string); len(got) != 1 || got[0] != "b" {
		t.Fatalf("unexpected params %v", got)
	}
}

func TestPollOnce_EmptyCache(t *testing.T) {
	q := &fakeQueue{resolve: true}
	p, _ := New(Config{Interval: time.Second}, names(), q.submit)

	res := p.PollOnce()
	if res.Commands != 0 || len(q.cmds) != 0 {
		t.Fatalf("expected nothing sent, got %+v", res)
	}
}

func TestPollOnce_NoOverlap(t *testing.T) {
	q := &fakeQueue{resolve: false}
	p, _ := New(Config{Interval: time.Second, Bundle: true}, names("a"), q.submit)

	if res := p.PollOnce(); res.Skipped {
		t.Fatalf("first cycle must not skip")
	}
	if res := p.PollOnce(); !res.Skipped {
		t.Fatalf("expected skip while previous request is queued")
	}
	if len(q.cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(q.cmds))
	}
}

func TestNew_Invalid(t *testing.T) {
	q := &fakeQueue{}
	if _, err := New(Config{}, names("a"), q.submit); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := New(Config{Interval: time.Second}, nil, q.submit); err == nil {
		t.Fatalf("expected error for missing names")
	}
}

func TestBuild_DisabledFeedback(t *testing.T) {
	q := &fakeQueue{}
	p, err := Build(cfg.BridgeConfig{}, names("a"), q.submit)
	if err != nil || p != nil {
		t.Fatalf("expected nil poller, got %v %v", p, err)
	}

	b := cfg.BridgeConfig{Feedback: cfg.FeedbackConfig{Enabled: true, PollIntervalMs: 100}}
	p, err = Build(b, names("a"), q.submit)
	if err != nil || p == nil {
		t.Fatalf("Build() err=%v", err)
	}
	if p.Interval() != 100*time.Millisecond {
		t.Fatalf("unexpected interval %v", p.Interval())
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	q := &fakeQueue{resolve: true}
	p, _ := New(Config{Interval: 5 * time.Millisecond, Bundle: true}, names("a"), q.submit)

	ctx, cancel := context.WithCancel(context.Background())
	cycles := make(chan PollResult, 64)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, func(r PollResult) {
			select {
			case cycles <- r:
			default:
			}
		})
		close(done)
	}()

	select {
	case <-cycles:
	case <-time.After(time.Second):
		t.Fatalf("no poll cycle")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop")
	}
}

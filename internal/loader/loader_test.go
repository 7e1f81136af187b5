package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestTicketRelevance(t *testing.T) {
	s := NewScope("trades")
	if s.Status() != StatusIdle {
		t.Fatalf("new scope status = %s", s.Status())
	}

	first := s.Begin()
	if !first.Relevant() || s.Status() != StatusLoading {
		t.Fatal("first ticket should be relevant while loading")
	}

	second := s.Begin()
	if first.Relevant() {
		t.Error("older ticket must lose relevance once a newer load begins")
	}
	if !second.Relevant() {
		t.Error("newest ticket should be relevant")
	}

	s.Close()
	if second.Relevant() {
		t.Error("closing the scope must invalidate every ticket")
	}
}

func TestRun_AppliesResult(t *testing.T) {
	s := NewScope("journal")
	var got []int
	err := Run(context.Background(), s,
		func(ctx context.Context) ([]int, error) { return []int{1, 2, 3}, nil },
		func(v []int) error { got = v; return nil },
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 || s.Status() != StatusSuccess {
		t.Errorf("got %v, status %s", got, s.Status())
	}
}

func TestRun_FetchError(t *testing.T) {
	s := NewScope("trades")
	boom := errors.New("boom")
	applied := false
	err := Run(context.Background(), s,
		func(ctx context.Context) (int, error) { return 0, boom },
		func(int) error { applied = true; return nil },
	)
	if !errors.Is(err, boom) || applied {
		t.Fatalf("err = %v, applied = %v", err, applied)
	}
	if s.Status() != StatusError || !errors.Is(s.Err(), boom) {
		t.Errorf("status %s err %v", s.Status(), s.Err())
	}
}

func TestRun_DiscardsAfterClose(t *testing.T) {
	s := NewScope("trades")
	applied := false
	err := Run(context.Background(), s,
		func(ctx context.Context) (int, error) {
			s.Close()
			return 42, nil
		},
		func(int) error { applied = true; return nil },
	)
	if !errors.Is(err, ErrStale) || applied {
		t.Errorf("closed scope result must be dropped: err=%v applied=%v", err, applied)
	}
}

func TestRun_NewerLoadWins(t *testing.T) {
	s := NewScope("trades")

	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	var applied []string

	apply := func(v string) error {
		mu.Lock()
		applied = append(applied, v)
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowErr = Run(context.Background(), s, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "slow", nil
		}, apply)
	}()

	<-started
	if err := Run(context.Background(), s, func(ctx context.Context) (string, error) {
		return "fast", nil
	}, apply); err != nil {
		t.Fatalf("fast load: %v", err)
	}
	close(release)
	wg.Wait()

	if !errors.Is(slowErr, ErrStale) {
		t.Errorf("slow load should be stale, got %v", slowErr)
	}
	if len(applied) != 1 || applied[0] != "fast" {
		t.Errorf("applied = %v, want [fast]", applied)
	}
	if s.Status() != StatusSuccess {
		t.Errorf("status = %s", s.Status())
	}
}

func TestRun_ClosedScopeSkipsFetch(t *testing.T) {
	s := NewScope("journal")
	s.Close()
	fetched := false
	err := Run(context.Background(), s,
		func(ctx context.Context) (int, error) { fetched = true; return 1, nil },
		func(int) error { return nil },
	)
	if !errors.Is(err, ErrStale) || fetched {
		t.Errorf("err=%v fetched=%v", err, fetched)
	}
}

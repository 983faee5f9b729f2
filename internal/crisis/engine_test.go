package crisis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/cascade"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/store"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/testutil"
)

type engineStore struct {
	mu       sync.Mutex
	active   *models.Crisis
	created  int
	phases   []models.CrisisPhase
	speeds   []float64
	resets   int
	resetErr error
}

func (s *engineStore) CreateCrisis(_ context.Context, c *models.Crisis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	c.ID = fmt.Sprintf("crisis-%d", s.created)
	c.StartedAt = time.Now()
	stored := *c
	s.active = &stored
	return nil
}

func (s *engineStore) GetActiveCrisis(_ context.Context) (*models.Crisis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active.Active() {
		return nil, store.ErrNotFound
	}
	found := *s.active
	return &found, nil
}

func (s *engineStore) UpdateCrisisPhase(_ context.Context, id string, phase models.CrisisPhase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = append(s.phases, phase)
	if s.active != nil && s.active.ID == id {
		s.active.Phase = phase
	}
	return nil
}

func (s *engineStore) UpdateCrisisSpeed(_ context.Context, id string, speedFactor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speeds = append(s.speeds, speedFactor)
	if s.active != nil && s.active.ID == id {
		s.active.SpeedFactor = speedFactor
	}
	return nil
}

func (s *engineStore) ResetSimulation(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return s.resetErr
	}
	s.resets++
	s.active = nil
	return nil
}

func (s *engineStore) setResetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetErr = err
}

func (s *engineStore) phaseLog() []models.CrisisPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CrisisPhase(nil), s.phases...)
}

func (s *engineStore) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

type fakeRunner struct {
	mu               sync.Mutex
	runs             []cascade.Request
	runStartCount    int
	officials        []cascade.Request
	officialAttempts int
	officialErr      error

	// When set, Run signals started and then blocks until ctx is
	// cancelled or release is closed.
	started chan struct{}
	release chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context, req cascade.Request) (*cascade.Result, error) {
	r.mu.Lock()
	r.runStartCount++
	started, release := r.started, r.release
	r.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
		}
	}

	r.mu.Lock()
	r.runs = append(r.runs, req)
	r.mu.Unlock()
	return &cascade.Result{
		RootPost:           &models.Post{ID: "post-root", Kind: models.PostOriginal},
		ReactionsAttempted: 2,
		ReactionsCreated:   2,
		LikesCreated:       3,
		ViewsAdded:         40,
	}, nil
}

func (r *fakeRunner) OfficialResponse(_ context.Context, req cascade.Request) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.officialAttempts++
	if r.officialErr != nil {
		return nil, r.officialErr
	}
	r.officials = append(r.officials, req)
	return &models.Post{ID: "post-official", Kind: models.PostOriginal}, nil
}

func (r *fakeRunner) countMode(mode cascade.Mode) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, req := range r.runs {
		if req.Mode == mode {
			n++
		}
	}
	return n
}

func (r *fakeRunner) runStarts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runStartCount
}

func (r *fakeRunner) firstRun() cascade.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[0]
}

func (r *fakeRunner) firstModeRun(mode cascade.Mode) (cascade.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.runs {
		if req.Mode == mode {
			return req, true
		}
	}
	return cascade.Request{}, false
}

func (r *fakeRunner) officialCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.officials)
}

func (r *fakeRunner) officialAttemptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.officialAttempts
}

func (r *fakeRunner) lastOfficial() cascade.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.officials[len(r.officials)-1]
}

type phaseChange struct {
	crisis models.Crisis
	from   models.CrisisPhase
}

type recordingEvents struct {
	mu      sync.Mutex
	started []models.Crisis
	changes []phaseChange
	resets  int
}

func (e *recordingEvents) CrisisStarted(c models.Crisis) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, c)
}

func (e *recordingEvents) CrisisPhaseChanged(c models.Crisis, from models.CrisisPhase) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = append(e.changes, phaseChange{crisis: c, from: from})
}

func (e *recordingEvents) SimulationReset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets++
}

func (e *recordingEvents) changeLog() []phaseChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]phaseChange(nil), e.changes...)
}

func (e *recordingEvents) resetCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

// newTestEngine builds an engine whose schedulers never fire on their own;
// tests drive tick and backgroundTick directly.
func newTestEngine(st *engineStore, runner *fakeRunner) (*Engine, *recordingEvents) {
	events := &recordingEvents{}
	e := New(Config{
		Storage:            st,
		Cascades:           runner,
		Events:             events,
		Logger:             logging.NewLoggerWithService("towncrier-test"),
		TickInterval:       time.Hour,
		BackgroundInterval: time.Hour,
	})
	return e, events
}

func startParams() StartParams {
	return StartParams{
		Type:     models.CrisisBankInsolvency,
		Topic:    "Zenith Bank",
		Severity: models.SeverityHigh,
	}
}

func waitUntil(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartAppliesDefaultsAndActivates(t *testing.T) {
	st := &engineStore{}
	e, events := newTestEngine(st, &fakeRunner{})

	c, err := e.Start(context.Background(), startParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.ID == "" {
		t.Fatal("crisis has no id")
	}
	if c.Phase != models.PhaseEmerging {
		t.Fatalf("new crisis phase = %s, want EMERGING", c.Phase)
	}
	if c.SpeedFactor != 1 || c.BotAmplification != 1 {
		t.Fatalf("defaults not applied: speed %v amp %v", c.SpeedFactor, c.BotAmplification)
	}
	if c.OrganicActivity != 0.3 {
		t.Fatalf("organic activity default = %v, want 0.3", c.OrganicActivity)
	}
	if c.Language != models.LanguageEnglish {
		t.Fatalf("language default = %q, want en", c.Language)
	}

	if e.scheduler.Paused() {
		t.Fatal("crisis scheduler still paused after start")
	}
	if got := e.scheduler.Period(); got != time.Hour {
		t.Fatalf("tick period = %v, want 1h", got)
	}

	snapshot, paused := e.Snapshot()
	if snapshot == nil || snapshot.ID != c.ID {
		t.Fatalf("Snapshot returned %+v", snapshot)
	}
	if paused {
		t.Fatal("fresh crisis reports paused")
	}

	events.mu.Lock()
	startedCount := len(events.started)
	events.mu.Unlock()
	if startedCount != 1 {
		t.Fatalf("CrisisStarted fired %d times, want 1", startedCount)
	}
}

func TestStartRejectsBadParams(t *testing.T) {
	e, _ := newTestEngine(&engineStore{}, &fakeRunner{})

	cases := map[string]StartParams{
		"missing type":  {Topic: "Zenith Bank", Severity: models.SeverityHigh},
		"missing topic": {Type: models.CrisisBankInsolvency, Severity: models.SeverityHigh},
		"bad severity":  {Type: models.CrisisBankInsolvency, Topic: "Zenith Bank", Severity: "CATASTROPHIC"},
	}
	for name, params := range cases {
		if _, err := e.Start(context.Background(), params); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%s: err = %v, want ErrInvalidParams", name, err)
		}
	}
}

func TestStartConflictsWithRunningCrisis(t *testing.T) {
	e, _ := newTestEngine(&engineStore{}, &fakeRunner{})

	if _, err := e.Start(context.Background(), startParams()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := e.Start(context.Background(), startParams()); !errors.Is(err, ErrCrisisActive) {
		t.Fatalf("second start err = %v, want ErrCrisisActive", err)
	}
}

// A crisis another process left active in storage blocks a new one even
// though this engine has never seen it.
func TestStartConflictsWithStoredCrisis(t *testing.T) {
	st := &engineStore{}
	stored := testutil.NewFixtures().ActiveCrisis()
	st.active = &stored
	e, _ := newTestEngine(st, &fakeRunner{})

	if _, err := e.Start(context.Background(), startParams()); !errors.Is(err, ErrCrisisActive) {
		t.Fatalf("err = %v, want ErrCrisisActive", err)
	}
}

func TestAdvancePhaseWalksSequence(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{officialErr: store.ErrNotFound}
	e, events := newTestEngine(st, runner)
	ctx := context.Background()

	if _, err := e.AdvancePhase(ctx); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("advance without crisis err = %v, want ErrNoCrisis", err)
	}

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	want := []models.CrisisPhase{
		models.PhaseEscalating, models.PhasePeak,
		models.PhaseDeclining, models.PhaseResolved,
	}
	for _, phase := range want {
		c, err := e.AdvancePhase(ctx)
		if err != nil {
			t.Fatalf("advance to %s: %v", phase, err)
		}
		if c.Phase != phase {
			t.Fatalf("advanced to %s, want %s", c.Phase, phase)
		}
	}
	if _, err := e.AdvancePhase(ctx); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("advance past RESOLVED err = %v, want ErrAlreadyResolved", err)
	}

	phases := st.phaseLog()
	if len(phases) != len(want) {
		t.Fatalf("store saw %d phase updates, want %d", len(phases), len(want))
	}
	for i, phase := range want {
		if phases[i] != phase {
			t.Fatalf("store phase %d = %s, want %s", i, phases[i], phase)
		}
	}

	snapshot, _ := e.Snapshot()
	if snapshot.ResolvedAt == nil {
		t.Fatal("RESOLVED crisis has no resolved_at")
	}
	if !e.scheduler.Paused() {
		t.Fatal("scheduler still armed after RESOLVED")
	}

	changes := events.changeLog()
	wantFrom := []models.CrisisPhase{
		models.PhaseEmerging, models.PhaseEscalating,
		models.PhasePeak, models.PhaseDeclining,
	}
	if len(changes) != len(wantFrom) {
		t.Fatalf("got %d phase events, want %d", len(changes), len(wantFrom))
	}
	for i, from := range wantFrom {
		if changes[i].from != from {
			t.Fatalf("event %d from = %s, want %s", i, changes[i].from, from)
		}
	}
}

func TestSetPhaseJumpAndTerminalRules(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{officialErr: store.ErrNotFound}
	e, _ := newTestEngine(st, runner)
	ctx := context.Background()

	if _, err := e.SetPhase(ctx, models.PhasePeak); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("set phase without crisis err = %v, want ErrNoCrisis", err)
	}
	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.SetPhase(ctx, "SIMMERING"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("invalid phase err = %v, want ErrInvalidPhase", err)
	}

	c, err := e.SetPhase(ctx, models.PhasePeak)
	if err != nil {
		t.Fatalf("jump to PEAK: %v", err)
	}
	if c.Phase != models.PhasePeak {
		t.Fatalf("phase = %s, want PEAK", c.Phase)
	}

	// Same-phase set is a no-op and writes nothing.
	writes := len(st.phaseLog())
	if _, err := e.SetPhase(ctx, models.PhasePeak); err != nil {
		t.Fatalf("same-phase set: %v", err)
	}
	if got := len(st.phaseLog()); got != writes {
		t.Fatalf("same-phase set wrote %d updates", got-writes)
	}

	if _, err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := e.SetPhase(ctx, models.PhaseEmerging); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("revival err = %v, want ErrAlreadyResolved", err)
	}
}

func TestSetPhaseDormantShelvesCrisis(t *testing.T) {
	e, _ := newTestEngine(&engineStore{}, &fakeRunner{})
	ctx := context.Background()

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.SetPhase(ctx, models.PhaseDormant); err != nil {
		t.Fatalf("shelve: %v", err)
	}
	if !e.scheduler.Paused() {
		t.Fatal("scheduler still armed for a DORMANT crisis")
	}
	if err := e.Pause(); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("pause on shelved crisis err = %v, want ErrNoCrisis", err)
	}
	// A shelved crisis no longer blocks a fresh start.
	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("start after shelving: %v", err)
	}
}

func TestPauseBlocksCrisisTicks(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{}
	e, _ := newTestEngine(st, runner)
	ctx := context.Background()

	if err := e.Pause(); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("pause without crisis err = %v, want ErrNoCrisis", err)
	}
	if err := e.Resume(); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("resume without crisis err = %v, want ErrNoCrisis", err)
	}

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.SetPhase(ctx, models.PhasePeak); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}

	if err := e.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !e.scheduler.Paused() {
		t.Fatal("scheduler not paused")
	}
	for i := 0; i < 50; i++ {
		e.tick(ctx)
	}
	if got := runner.countMode(cascade.ModeCrisis); got != 0 {
		t.Fatalf("%d cascades ran while paused", got)
	}

	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	for i := 0; i < 50; i++ {
		e.tick(ctx)
	}
	if runner.countMode(cascade.ModeCrisis) == 0 {
		t.Fatal("no cascades after resume")
	}

	req := runner.firstRun()
	if req.Mode != cascade.ModeCrisis {
		t.Fatalf("run mode = %v, want crisis", req.Mode)
	}
	if req.MaxReactions != 5 {
		t.Fatalf("PEAK max reactions = %d, want 5", req.MaxReactions)
	}
	if req.CrisisID == "" || req.CrisisType != models.CrisisBankInsolvency {
		t.Fatalf("run request missing crisis identity: %+v", req)
	}
}

func TestSetSpeedValidationAndRescale(t *testing.T) {
	st := &engineStore{}
	e, _ := newTestEngine(st, &fakeRunner{})
	ctx := context.Background()

	if _, err := e.SetSpeed(ctx, 2); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("set speed without crisis err = %v, want ErrNoCrisis", err)
	}
	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, bad := range []float64{0, -3, math.NaN()} {
		if _, err := e.SetSpeed(ctx, bad); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("SetSpeed(%v) err = %v, want ErrInvalidSpeed", bad, err)
		}
	}

	c, err := e.SetSpeed(ctx, 4)
	if err != nil {
		t.Fatalf("SetSpeed(4): %v", err)
	}
	if c.SpeedFactor != 4 {
		t.Fatalf("speed factor = %v, want 4", c.SpeedFactor)
	}
	if got := e.scheduler.Period(); got != 15*time.Minute {
		t.Fatalf("tick period = %v, want 15m", got)
	}
	if stats := e.Stats(); stats.SpeedFactor != 4 {
		t.Fatalf("stats speed = %v, want 4", stats.SpeedFactor)
	}

	// Extreme factors clamp to the floor instead of spinning.
	if _, err := e.SetSpeed(ctx, 1e12); err != nil {
		t.Fatalf("SetSpeed(1e12): %v", err)
	}
	if got := e.scheduler.Period(); got != minTickPeriod {
		t.Fatalf("tick period = %v, want %v", got, minTickPeriod)
	}
}

func TestStopResolvesImmediately(t *testing.T) {
	e, _ := newTestEngine(&engineStore{}, &fakeRunner{})
	ctx := context.Background()

	if _, err := e.Stop(ctx); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("stop without crisis err = %v, want ErrNoCrisis", err)
	}
	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c, err := e.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Phase != models.PhaseResolved || c.ResolvedAt == nil {
		t.Fatalf("stopped crisis = %+v", c)
	}
	if !e.scheduler.Paused() {
		t.Fatal("scheduler still armed after stop")
	}
	if _, err := e.Stop(ctx); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second stop err = %v, want ErrAlreadyResolved", err)
	}
	// A resolved crisis does not block a fresh one.
	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("start after stop: %v", err)
	}
}

func TestEnteringDecliningPublishesOfficialResponse(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{}
	e, _ := newTestEngine(st, runner)
	ctx := context.Background()

	c, err := e.Start(ctx, startParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.SetPhase(ctx, models.PhaseDeclining); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}

	waitUntil(t, 2*time.Second, "official response", func() bool {
		return runner.officialCount() == 1
	})
	req := runner.lastOfficial()
	if req.CrisisID != c.ID {
		t.Fatalf("official response crisis = %q, want %q", req.CrisisID, c.ID)
	}
	if req.Severity != models.SeverityHigh {
		t.Fatalf("official response severity = %s, want HIGH", req.Severity)
	}
	waitUntil(t, 2*time.Second, "post counter", func() bool {
		return e.Stats().Posts == 1
	})

	// Re-entering DECLINING fires another clarification.
	if _, err := e.SetPhase(ctx, models.PhasePeak); err != nil {
		t.Fatalf("back to PEAK: %v", err)
	}
	if _, err := e.SetPhase(ctx, models.PhaseDeclining); err != nil {
		t.Fatalf("back to DECLINING: %v", err)
	}
	waitUntil(t, 2*time.Second, "second official response", func() bool {
		return runner.officialCount() == 2
	})
}

func TestOfficialResponseSkippedWithoutOfficialActor(t *testing.T) {
	runner := &fakeRunner{officialErr: store.ErrNotFound}
	e, _ := newTestEngine(&engineStore{}, runner)
	ctx := context.Background()

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.SetPhase(ctx, models.PhaseDeclining); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}

	waitUntil(t, 2*time.Second, "official response attempt", func() bool {
		return runner.officialAttemptCount() == 1
	})
	if got := e.Stats().Posts; got != 0 {
		t.Fatalf("posts = %d after skipped clarification, want 0", got)
	}
}

func TestResetClearsStateAndCounters(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{}
	e, events := newTestEngine(st, runner)
	ctx := context.Background()

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.RunCascadeNow(ctx); err != nil {
		t.Fatalf("RunCascadeNow: %v", err)
	}
	stats := e.Stats()
	if stats.Posts != 3 || stats.Engagements != 43 {
		t.Fatalf("stats before reset = %+v", stats)
	}

	if err := e.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if st.resetCount() != 1 {
		t.Fatalf("store resets = %d, want 1", st.resetCount())
	}
	snapshot, paused := e.Snapshot()
	if snapshot != nil || paused {
		t.Fatalf("after reset: crisis %+v paused %v", snapshot, paused)
	}
	stats = e.Stats()
	if stats.Posts != 0 || stats.Engagements != 0 {
		t.Fatalf("counters survived reset: %+v", stats)
	}
	if !e.scheduler.Paused() {
		t.Fatal("crisis scheduler armed with no crisis")
	}
	if events.resetCount() != 1 {
		t.Fatalf("SimulationReset fired %d times, want 1", events.resetCount())
	}

	// Reset on a quiet platform is a harmless no-op wipe.
	if err := e.Reset(ctx); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if st.resetCount() != 2 {
		t.Fatalf("store resets = %d, want 2", st.resetCount())
	}
}

func TestResetFailureKeepsCrisisTicking(t *testing.T) {
	st := &engineStore{}
	st.resetErr = errors.New("db down")
	e, _ := newTestEngine(st, &fakeRunner{})
	ctx := context.Background()

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Reset(ctx); err == nil {
		t.Fatal("reset succeeded against a failing store")
	}
	snapshot, _ := e.Snapshot()
	if snapshot == nil {
		t.Fatal("crisis dropped after failed reset")
	}
	if e.scheduler.Paused() {
		t.Fatal("scheduler not resumed after failed reset")
	}

	st.setResetErr(nil)
	if err := e.Reset(ctx); err != nil {
		t.Fatalf("reset after recovery: %v", err)
	}
}

func TestResetCancelsInFlightCascade(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	e, _ := newTestEngine(st, runner)
	ctx := context.Background()

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.SetPhase(ctx, models.PhasePeak); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		for i := 0; i < 200 && runner.runStarts() == 0; i++ {
			e.tick(ctx)
		}
	}()
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("cascade never started")
	}

	// Reset must cancel the blocked cascade rather than wait behind it.
	resetDone := make(chan error, 1)
	go func() { resetDone <- e.Reset(ctx) }()
	select {
	case err := <-resetDone:
		if err != nil {
			t.Fatalf("Reset: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reset deadlocked behind a cancelled cascade")
	}
	select {
	case <-tickDone:
	case <-time.After(2 * time.Second):
		t.Fatal("tick never returned after cancellation")
	}

	if _, err := e.RunCascadeNow(ctx); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("cascade after reset err = %v, want ErrNoCrisis", err)
	}
}

func TestRunCascadeNowWorksWhilePaused(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{}
	e, _ := newTestEngine(st, runner)
	ctx := context.Background()

	if _, err := e.RunCascadeNow(ctx); !errors.Is(err, ErrNoCrisis) {
		t.Fatalf("cascade without crisis err = %v, want ErrNoCrisis", err)
	}
	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := e.RunCascadeNow(ctx)
	if err != nil {
		t.Fatalf("RunCascadeNow: %v", err)
	}
	if result.RootPost == nil {
		t.Fatal("manual cascade returned no root post")
	}

	if err := e.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if _, err := e.RunCascadeNow(ctx); err != nil {
		t.Fatalf("manual cascade while paused: %v", err)
	}
	if got := runner.countMode(cascade.ModeCrisis); got != 2 {
		t.Fatalf("crisis cascades = %d, want 2", got)
	}

	// EMERGING profile shapes the request.
	req := runner.firstRun()
	if req.MaxReactions != 2 || req.ViewBudget != 150 {
		t.Fatalf("EMERGING request = %+v", req)
	}
}

func TestRecoverAdoptsStoredCrisis(t *testing.T) {
	st := &engineStore{}
	stored := testutil.NewFixtures().ActiveCrisis()
	stored.SpeedFactor = 2
	st.active = &stored
	e, _ := newTestEngine(st, &fakeRunner{})

	if err := e.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	snapshot, paused := e.Snapshot()
	if snapshot == nil || snapshot.ID != stored.ID {
		t.Fatalf("recovered crisis = %+v", snapshot)
	}
	if paused || e.scheduler.Paused() {
		t.Fatal("recovered crisis not ticking")
	}
	if got := e.scheduler.Period(); got != 30*time.Minute {
		t.Fatalf("tick period = %v, want 30m at speed 2", got)
	}
}

func TestRecoverWithQuietStore(t *testing.T) {
	e, _ := newTestEngine(&engineStore{}, &fakeRunner{})

	if err := e.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if snapshot, _ := e.Snapshot(); snapshot != nil {
		t.Fatalf("recovered phantom crisis %+v", snapshot)
	}
	if !e.scheduler.Paused() {
		t.Fatal("scheduler armed with nothing to simulate")
	}
}

// Organic chatter runs on its own loop: it flows on a quiet platform and
// keeps flowing while the crisis is paused.
func TestBackgroundTickKeepsOrganicFlowing(t *testing.T) {
	st := &engineStore{}
	runner := &fakeRunner{}
	e, _ := newTestEngine(st, runner)
	ctx := context.Background()

	for i := 0; i < 400; i++ {
		e.backgroundTick(ctx)
	}
	quiet := runner.countMode(cascade.ModeOrganic)
	if quiet == 0 {
		t.Fatal("no organic threads on a quiet platform")
	}
	req, ok := runner.firstModeRun(cascade.ModeOrganic)
	if !ok {
		t.Fatal("no organic request recorded")
	}
	if req.CrisisID != "" {
		t.Fatalf("organic request carries crisis %q", req.CrisisID)
	}
	if req.MaxReactions != organicMaxReactions || req.ViewBudget != organicViewBudget {
		t.Fatalf("organic request = %+v", req)
	}

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	for i := 0; i < 400; i++ {
		e.backgroundTick(ctx)
	}
	if got := runner.countMode(cascade.ModeOrganic); got <= quiet {
		t.Fatal("organic chatter stopped during pause")
	}
	if got := runner.countMode(cascade.ModeCrisis); got != 0 {
		t.Fatalf("%d crisis cascades ran during pause", got)
	}
}

func TestStatsReportsTickState(t *testing.T) {
	e, _ := newTestEngine(&engineStore{}, &fakeRunner{})
	ctx := context.Background()

	stats := e.Stats()
	if stats.Posts != 0 || stats.Paused || stats.SpeedFactor != 1 {
		t.Fatalf("idle stats = %+v", stats)
	}
	if stats.TickInterval != time.Hour.String() {
		t.Fatalf("tick interval = %q, want %q", stats.TickInterval, time.Hour.String())
	}

	if _, err := e.Start(ctx, startParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.RunCascadeNow(ctx); err != nil {
		t.Fatalf("RunCascadeNow: %v", err)
	}
	stats = e.Stats()
	if stats.Posts != 3 {
		t.Fatalf("posts = %d, want 3", stats.Posts)
	}
	if stats.PostsPerMin <= 0 {
		t.Fatalf("posts per minute = %v, want > 0", stats.PostsPerMin)
	}
}

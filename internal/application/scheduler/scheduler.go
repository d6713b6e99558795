// Package scheduler decide cuándo se (re)calcula una línea de orden y reparte el trabajo
// entre un pool de workers con a lo sumo un cómputo en vuelo por línea.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// Computer ejecuta el cómputo de una línea (implementado por profitability.UseCase).
type Computer interface {
	Compute(ctx context.Context, lineID string) (*entity.Calculation, error)
	MarkFailed(ctx context.Context, lineID string, cause error)
}

// Config parámetros del pool.
type Config struct {
	Workers    int
	MaxRetries uint64        // reintentos ante errores transitorios
	BaseDelay  time.Duration // primer intervalo del backoff exponencial
}

// Accepted resultado de encolar: Queued claves nuevas en cola, Coalesced claves que ya estaban
// en cola o en vuelo (no se duplican).
type Accepted struct {
	Queued    int `json:"queued"`
	Coalesced int `json:"coalesced"`
}

func (a *Accepted) add(b Accepted) {
	a.Queued += b.Queued
	a.Coalesced += b.Coalesced
}

type keyState int

const (
	stateQueued keyState = iota + 1
	stateRunning
	stateRunningDirty // llegó otro disparo durante el cómputo: se vuelve a encolar al terminar
)

// Scheduler cola FIFO de claves (ID de línea) con coalescencia.
type Scheduler struct {
	cfg      Config
	computer Computer
	log      zerolog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []string
	states map[string]keyState
	active int
	closed bool

	stats Stats
}

// Stats contadores acumulados desde el arranque.
type Stats struct {
	Computed int64 `json:"computed"`
	Failed   int64 `json:"failed"`
	Retried  int64 `json:"retried"`
	Pending  int   `json:"pending"`
	Running  int   `json:"running"`
}

// New construye el scheduler; Run arranca los workers.
func New(cfg Config, computer Computer, log zerolog.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 200 * time.Millisecond
	}
	s := &Scheduler{
		cfg:      cfg,
		computer: computer,
		log:      log,
		states:   make(map[string]keyState),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Submit encola las líneas. Una clave ya en cola se descarta (el cómputo pendiente resolverá
// la base de costo vigente al empezar); una clave en vuelo se marca para re-encolarse una vez.
func (s *Scheduler) Submit(lineIDs ...string) Accepted {
	var acc Accepted
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range lineIDs {
		if id == "" {
			continue
		}
		switch s.states[id] {
		case 0:
			s.states[id] = stateQueued
			s.queue = append(s.queue, id)
			acc.Queued++
		case stateRunning:
			s.states[id] = stateRunningDirty
			acc.Coalesced++
		default:
			acc.Coalesced++
		}
	}
	if acc.Queued > 0 {
		s.cond.Broadcast()
	}
	return acc
}

// Run procesa la cola hasta que ctx se cancele. Los cómputos en curso terminan;
// los que siguen en cola se descartan.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	s.log.Info().Int("workers", s.cfg.Workers).Msg("scheduler de recálculo iniciado")

	g.Go(func() error {
		<-gctx.Done()
		s.mu.Lock()
		s.closed = true
		s.cond.Broadcast()
		s.mu.Unlock()
		return nil
	})
	for i := 0; i < s.cfg.Workers; i++ {
		worker := i + 1
		g.Go(func() error {
			s.work(gctx, worker)
			return nil
		})
	}

	err := g.Wait()
	s.log.Info().Msg("scheduler de recálculo detenido")
	return err
}

func (s *Scheduler) work(ctx context.Context, worker int) {
	for {
		id, ok := s.next()
		if !ok {
			return
		}
		s.runJob(ctx, worker, id)
		s.finish(id)
	}
}

func (s *Scheduler) next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return "", false
	}
	id := s.queue[0]
	s.queue[0] = ""
	s.queue = s.queue[1:]
	s.states[id] = stateRunning
	s.active++
	return id, true
}

func (s *Scheduler) finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	if s.states[id] == stateRunningDirty {
		s.states[id] = stateQueued
		s.queue = append(s.queue, id)
	} else {
		delete(s.states, id)
	}
	s.cond.Broadcast()
}

// runJob ejecuta el cómputo sin heredar la cancelación: un cómputo iniciado termina.
// NotFound y ResolutionError no se reintentan; el resto sí, con backoff exponencial y jitter.
func (s *Scheduler) runJob(ctx context.Context, worker int, id string) {
	jobCtx := context.WithoutCancel(ctx)
	backoff := retry.WithMaxRetries(s.cfg.MaxRetries,
		retry.WithJitterPercent(10, retry.NewExponential(s.cfg.BaseDelay)))

	attempt := 0
	err := retry.Do(jobCtx, backoff, func(ctx context.Context) error {
		attempt++
		_, err := s.computer.Compute(ctx, id)
		if err == nil {
			return nil
		}
		if domain.IsFatal(err) {
			return err
		}
		s.mu.Lock()
		s.stats.Retried++
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("line_id", id).Int("intento", attempt).Msg("cómputo fallido, se reintenta")
		return retry.RetryableError(err)
	})

	s.mu.Lock()
	if err != nil {
		s.stats.Failed++
	} else {
		s.stats.Computed++
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("line_id", id).Int("worker", worker).Int("intentos", attempt).Msg("cómputo de línea fallido")
		s.computer.MarkFailed(jobCtx, id, err)
	}
}

// WaitIdle bloquea hasta que no queden claves en cola ni en vuelo, o hasta que ctx termine.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) > 0 || s.active > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	return nil
}

// Stats devuelve una copia de los contadores.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Pending = len(s.queue)
	st.Running = s.active
	return st
}

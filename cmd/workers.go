package cmd

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"royaltyengine/events"
	"royaltyengine/service"
)

// calculationQueue is a buffered in-process queue feeding the calculation
// workers. Enqueue never blocks a request handler: if the buffer is full the
// run stays claimed in processing and the stuck-run sweeper will fail it for
// operator attention.
type calculationQueue struct {
	ch chan int64
}

func newCalculationQueue(buffer int) *calculationQueue {
	return &calculationQueue{ch: make(chan int64, buffer)}
}

// Enqueue hands a claimed run to the workers
func (q *calculationQueue) Enqueue(runID int64) {
	select {
	case q.ch <- runID:
	default:
		log.WithField("runID", runID).Warn("Calculation queue full; run left for sweeper")
	}
}

// startCalculationWorkers launches the background executors that perform the
// processing phase. The returned stop function waits for in-flight
// calculations to finish.
func startCalculationWorkers(ctx context.Context, runs service.RunService, queue *calculationQueue, count int) func() {
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case runID := <-queue.ch:
					if _, err := runs.ExecuteCalculation(ctx, runID); err != nil {
						// Already recorded on the run; log for the operator.
						log.WithFields(log.Fields{
							"worker": worker,
							"runID":  runID,
							"error":  err,
						}).Error("Run calculation failed")
					}
				}
			}
		}(i)
	}

	return func() {
		wg.Wait()
	}
}

// startStuckRunSweeper periodically fails runs that have sat in processing
// past the timeout, e.g. after a crash mid-calculation
func startStuckRunSweeper(ctx context.Context, runs service.RunService, interval, timeout time.Duration) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-timeout)
				count, err := runs.FailStuckRuns(ctx, cutoff)
				if err != nil {
					log.WithError(err).Error("Stuck run sweep failed")
					continue
				}
				if count > 0 {
					log.WithField("count", count).Warn("Failed stuck processing runs")
				}
			}
		}
	}()

	return func() {
		<-done
	}
}

// startNotificationRelay forwards statement lifecycle events to the
// notification sink. Sink errors are logged and never propagate.
func startNotificationRelay(bus *events.Bus, sink service.NotificationSink) {
	bus.Subscribe(events.EventTypeStatementPayable, func(ctx context.Context, event events.Event) {
		e := event.(events.StatementPayableEvent)
		if err := sink.Notify(ctx, e.CreatorID, e.StatementID, string(event.Type())); err != nil {
			log.WithError(err).Warn("Failed to deliver payable notification")
		}
	})
	bus.Subscribe(events.EventTypeStatementDisputed, func(ctx context.Context, event events.Event) {
		e := event.(events.StatementDisputedEvent)
		if err := sink.Notify(ctx, e.CreatorID, e.StatementID, string(event.Type())); err != nil {
			log.WithError(err).Warn("Failed to deliver dispute notification")
		}
	})
	bus.Subscribe(events.EventTypeStatementResolved, func(ctx context.Context, event events.Event) {
		e := event.(events.StatementResolvedEvent)
		if err := sink.Notify(ctx, e.CreatorID, e.StatementID, string(event.Type())); err != nil {
			log.WithError(err).Warn("Failed to deliver resolution notification")
		}
	})
	bus.Subscribe(events.EventTypeStatementPaid, func(ctx context.Context, event events.Event) {
		e := event.(events.StatementPaidEvent)
		if err := sink.Notify(ctx, e.CreatorID, e.StatementID, string(event.Type())); err != nil {
			log.WithError(err).Warn("Failed to deliver payment notification")
		}
	})
}

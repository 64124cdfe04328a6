package location

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/stratoberry/go-gpsd"

	"cargotag/internal/cargo"
)

const defaultGPSDDialTimeout = 10 * time.Second

// GPSD reads the first 2D or better fix from a gpsd daemon.
type GPSD struct {
	Address string
}

type dialResult struct {
	session *gpsd.Session
	err     error
}

func (g *GPSD) Locate(ctx context.Context) (cargo.Fix, error) {
	timeout := defaultGPSDDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return cargo.Fix{}, fail(Timeout, ctx.Err())
		}
	}

	// Dial also waits for the daemon's banner, which has no deadline of its
	// own, so it runs off to the side of ctx.
	dialed := make(chan dialResult, 1)
	go func() {
		session, err := gpsd.DialTimeout(g.Address, timeout)
		dialed <- dialResult{session: session, err: err}
	}()

	var session *gpsd.Session
	select {
	case <-ctx.Done():
		go func() {
			if r := <-dialed; r.err == nil && r.session != nil {
				release(r.session, r.session.Watch(), 2)
			}
		}()
		return cargo.Fix{}, fail(Timeout, ctx.Err())
	case r := <-dialed:
		if r.err != nil {
			return cargo.Fix{}, dialFailure(g.Address, r.err)
		}
		session = r.session
	}

	reports := make(chan any, 1)
	offer := func(report any) {
		select {
		case reports <- report:
		default:
		}
	}
	session.AddFilter("TPV", func(r any) {
		if tpv, ok := r.(*gpsd.TPVReport); ok && tpv != nil && tpv.Mode >= gpsd.Mode2D {
			offer(tpv)
		}
	})
	session.AddFilter("ERROR", func(r any) {
		if report, ok := r.(*gpsd.ERRORReport); ok && report != nil {
			offer(report)
		}
	})
	done := session.Watch()

	select {
	case <-ctx.Done():
		release(session, done, 2)
		return cargo.Fix{}, fail(Timeout, ctx.Err())
	case <-done:
		release(session, done, 1)
		return cargo.Fix{}, fail(PositionUnavailable, errors.New("gpsd closed the stream before reporting a fix"))
	case report := <-reports:
		release(session, done, 2)
		switch r := report.(type) {
		case *gpsd.TPVReport:
			return tpvFix(r), nil
		case *gpsd.ERRORReport:
			if strings.Contains(strings.ToLower(r.Message), "permission") {
				return cargo.Fix{}, fail(PermissionDenied, errors.New(r.Message))
			}
			return cargo.Fix{}, fail(PositionUnavailable, errors.New(r.Message))
		}
		return cargo.Fix{}, fail(PositionUnavailable, fmt.Errorf("unexpected gpsd report %T", report))
	}
}

// release closes the session. Close and the watch loop each signal once on
// done, and nothing else reads it, so the remaining sends are drained here.
func release(session *gpsd.Session, done chan bool, pending int) {
	go func() {
		for ; pending > 0; pending-- {
			<-done
		}
	}()
	_ = session.Close()
}

func dialFailure(address string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fail(Unsupported, fmt.Errorf("gpsd not running at %s: %w", address, err))
	case errors.As(err, &netErr) && netErr.Timeout():
		return fail(Timeout, err)
	default:
		return fail(Unsupported, err)
	}
}

func tpvFix(r *gpsd.TPVReport) cargo.Fix {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return cargo.Fix{Latitude: r.Lat, Longitude: r.Lon, Timestamp: ts.UnixMilli()}
}

package preflight

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"cargotag/internal/config"
	"cargotag/internal/journal"
)

// MinFreeBytes is the free space below which the output directory is
// reported as failing. A few hundred artifacts fit comfortably.
const MinFreeBytes = 64 << 20

const dialTimeout = 2 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// minBytes available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	detail := fmt.Sprintf("%d MiB available", free>>20)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need %d MiB", detail, minBytes>>20)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckJournal opens the delivery journal, which also verifies its schema
// version.
func CheckJournal(ctx context.Context, cfg *config.Config) Result {
	const name = "Journal"
	store, err := journal.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	if _, err := store.List(ctx, 1); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: store.Path()}
}

// CheckLocation verifies the configured location source is reachable. It
// does not wait for a fix.
func CheckLocation(ctx context.Context, cfg config.Location) Result {
	const name = "Location"
	switch cfg.Source {
	case config.LocationNone:
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	case config.LocationStatic:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("static %.6f, %.6f", cfg.StaticLatitude, cfg.StaticLongitude)}
	case config.LocationGPSD:
		checkCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		var d net.Dialer
		conn, err := d.DialContext(checkCtx, "tcp", cfg.GPSDAddress)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("gpsd at %s unreachable (%v)", cfg.GPSDAddress, err)}
		}
		_ = conn.Close()
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("gpsd at %s reachable", cfg.GPSDAddress)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown source %q", cfg.Source)}
	}
}

package merge

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/alnah/go-audiobook/internal/logging"
	"github.com/alnah/go-audiobook/internal/probe"
)

// progressProber logs one line per measured chapter while the timeline is
// built, so long books show progress.
type progressProber struct {
	inner  probe.Prober
	logger *slog.Logger
	total  int
	done   int
}

func (p *progressProber) Probe(ctx context.Context, path string) (time.Duration, error) {
	d, err := p.inner.Probe(ctx, path)
	if err != nil {
		return d, err
	}
	p.done++
	p.logger.Info("measured chapter",
		slog.String("chapter", fmt.Sprintf("%d/%d", p.done, p.total)),
		slog.String(logging.FieldPath, filepath.Base(path)),
		slog.Duration("duration", d.Truncate(time.Millisecond)))
	return d, nil
}

package targets

import (
	"context"
	"log/slog"

	"ainews/internal/core"
)

type PageTarget struct {
	name string
	path string
}

func NewPageTarget(name, path string) *PageTarget {
	return &PageTarget{name: name, path: path}
}

func (t *PageTarget) Name() string {
	return t.name
}

func (t *PageTarget) Publish(ctx context.Context, out *core.Output) error {
	if err := writeFileAtomic(t.path, []byte(out.Page)); err != nil {
		return err
	}
	slog.Info("Page written", "target", t.name, "path", t.path, "bytes", len(out.Page))
	return nil
}

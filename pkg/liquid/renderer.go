package liquid

import (
	"context"
	"fmt"
	"time"

	"github.com/osteele/liquid"
)

// Limits applied to user editable templates
const (
	DefaultRenderTimeout   = 5 * time.Second
	DefaultMaxTemplateSize = 64 * 1024
)

// Renderer renders Liquid templates with a size cap and a deadline
type Renderer struct {
	timeout time.Duration
	maxSize int
	engine  *liquid.Engine
}

func NewRenderer() *Renderer {
	return NewRendererWithOptions(DefaultRenderTimeout, DefaultMaxTemplateSize)
}

func NewRendererWithOptions(timeout time.Duration, maxSize int) *Renderer {
	return &Renderer{
		timeout: timeout,
		maxSize: maxSize,
		engine:  liquid.NewEngine(),
	}
}

// Validate parses template without rendering it
func (r *Renderer) Validate(template string) error {
	if len(template) > r.maxSize {
		return fmt.Errorf("template size (%d bytes) exceeds maximum allowed size (%d bytes)", len(template), r.maxSize)
	}
	if _, err := r.engine.ParseString(template); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

// Render renders template with data. It gives up when ctx is done or the
// render timeout elapses, whichever comes first.
func (r *Renderer) Render(ctx context.Context, template string, data map[string]interface{}) (string, error) {
	if template == "" {
		return "", fmt.Errorf("template content is empty")
	}
	if len(template) > r.maxSize {
		return "", fmt.Errorf("template size (%d bytes) exceeds maximum allowed size (%d bytes)", len(template), r.maxSize)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("panic during liquid rendering: %v", p)}
			}
		}()

		out, err := r.engine.ParseAndRenderString(template, data)
		if err != nil {
			done <- result{err: fmt.Errorf("liquid rendering failed: %w", err)}
			return
		}
		done <- result{out: out}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("liquid rendering aborted: %w", ctx.Err())
	}
}

// Package output renders observed records for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// Format selects how records are written.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml or text)", s)
	}
}

// Printer is a hub subscriber writing every event to w.
type Printer struct {
	id     string
	format Format

	mu     sync.Mutex
	w      io.Writer
	enc    *yaml.Encoder
	closed bool
	done   chan struct{}
}

// NewPrinter creates a printer writing format to w.
func NewPrinter(id string, w io.Writer, format Format) *Printer {
	p := &Printer{
		id:     id,
		format: format,
		w:      w,
		done:   make(chan struct{}),
	}
	if format == FormatYAML {
		p.enc = yaml.NewEncoder(w)
		p.enc.SetIndent(2)
	}
	return p
}

// ID returns the subscriber ID.
func (p *Printer) ID() string {
	return p.id
}

// Send writes event.
func (p *Printer) Send(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return domain.ErrSubscriberClosed
	}

	switch p.format {
	case FormatYAML:
		// Each record becomes its own YAML document.
		if err := p.enc.Encode(event); err != nil {
			return fmt.Errorf("failed to write yaml record: %w", err)
		}
		return nil
	case FormatText:
		return p.writeText(event)
	default:
		data, err := event.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		_, err = p.w.Write(append(data, '\n'))
		return err
	}
}

func (p *Printer) writeText(event events.Event) error {
	var b strings.Builder
	b.WriteString(event.Timestamp().Local().Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(string(event.Type()))

	if r, ok := event.(*events.Record); ok {
		for _, part := range []string{r.Topic, r.Event, r.Status} {
			if part != "" {
				b.WriteByte(' ')
				b.WriteString(part)
			}
		}
		if r.Error != "" {
			fmt.Fprintf(&b, " error=%q", r.Error)
		}
		if len(r.Payload) > 0 {
			payload, err := json.Marshal(r.Payload)
			if err != nil {
				return fmt.Errorf("failed to encode payload: %w", err)
			}
			b.WriteByte(' ')
			b.Write(payload)
		}
	} else if topic := event.GetTopic(); topic != "" {
		b.WriteByte(' ')
		b.WriteString(topic)
	}

	b.WriteByte('\n')
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Close flushes any pending output.
func (p *Printer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	if p.enc != nil {
		return p.enc.Close()
	}
	return nil
}

// Done is closed once Close has been called.
func (p *Printer) Done() <-chan struct{} {
	return p.done
}

var _ ports.Subscriber = (*Printer)(nil)

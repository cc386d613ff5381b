package services

import (
  "fmt"
  "strings"
)

// diffBuilder accumulates the human-readable changed-field summary
// that every accepted mutation writes to the audit trail.
type diffBuilder struct {
  parts []string
}

func (d *diffBuilder) str(field, oldVal, newVal string) {
  if oldVal == newVal {
    return
  }
  d.parts = append(d.parts, fmt.Sprintf("%s: %q -> %q", field, oldVal, newVal))
}

func (d *diffBuilder) num(field string, oldVal, newVal int) {
  if oldVal == newVal {
    return
  }
  d.parts = append(d.parts, fmt.Sprintf("%s: %d -> %d", field, oldVal, newVal))
}

func (d *diffBuilder) flag(field string, oldVal, newVal bool) {
  if oldVal == newVal {
    return
  }
  d.parts = append(d.parts, fmt.Sprintf("%s: %t -> %t", field, oldVal, newVal))
}

func (d *diffBuilder) note(text string) {
  d.parts = append(d.parts, text)
}

func (d *diffBuilder) empty() bool { return len(d.parts) == 0 }

func (d *diffBuilder) String() string { return strings.Join(d.parts, "; ") }

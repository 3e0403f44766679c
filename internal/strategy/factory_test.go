package strategy

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Params
		wantKind string
		wantErr  string
		wantIs   error
	}{
		{
			name:     "grid",
			cfg:      Params{Kind: "grid", Investment: "30", Range: []string{"50", "100"}, Copies: 3},
			wantKind: KindGrid,
		},
		{
			name:     "grid percent",
			cfg:      Params{Kind: "grid_percent", Investment: "100", Range: []string{"60", "50"}, Percent: "0.01", PercentLost: "0.1"},
			wantKind: KindGridPercent,
		},
		{
			name:    "unknown kind",
			cfg:     Params{Kind: "martingale", Investment: "1", Range: []string{"1", "2"}},
			wantErr: "unknown kind",
		},
		{
			name:    "bad decimal",
			cfg:     Params{Kind: "grid", Investment: "lots", Range: []string{"50", "100"}, Copies: 1},
			wantErr: "investment",
		},
		{
			name:   "grid without copies",
			cfg:    Params{Kind: "grid", Investment: "30", Range: []string{"50", "100"}},
			wantIs: ErrInvalidCopies,
		},
		{
			name:   "grid percent without percent",
			cfg:    Params{Kind: "grid_percent", Investment: "30", Range: []string{"50", "100"}},
			wantIs: ErrInvalidPercent,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := New(c.cfg)
			switch {
			case c.wantErr != "":
				if err == nil || !strings.Contains(err.Error(), c.wantErr) {
					t.Fatalf("expected error containing %q, got %v", c.wantErr, err)
				}
			case c.wantIs != nil:
				if !errors.Is(err, c.wantIs) {
					t.Fatalf("expected %v, got %v", c.wantIs, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if s.Name() != c.wantKind {
					t.Errorf("kind = %s", s.Name())
				}
				if len(s.AssignPositions()) == 0 {
					t.Error("expected positions")
				}
			}
		})
	}
}

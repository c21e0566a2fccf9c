package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	testrequire "github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

func TestRunAPIRequiresToken(t *testing.T) {
	logger := zerolog.Nop()
	a := New(&config.Config{}, nil, &logger)

	err := a.RunAPI(context.Background())
	testrequire.ErrorIs(t, err, errMissingToken)
}

func TestOneShotModesRequireFlags(t *testing.T) {
	logger := zerolog.Nop()
	a := New(&config.Config{}, nil, &logger)

	tests := []struct {
		name string
		run  func(context.Context, Options) error
		opts Options
		flag string
	}{
		{name: "research", run: a.RunResearch, flag: "-project"},
		{name: "approve run", run: a.ApproveRun, flag: "-run"},
		{name: "generate", run: a.Generate, flag: "-project or -session"},
		{name: "replace without session", run: a.Replace, opts: Options{VersionID: "v"}, flag: "-session"},
		{name: "replace without version", run: a.Replace, opts: Options{SessionID: "s"}, flag: "-version"},
		{name: "approve strategy", run: a.ApproveStrategy, flag: "-session"},
		{name: "validate", run: a.Validate, flag: "-version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(context.Background(), tt.opts)
			testrequire.ErrorIs(t, err, errMissingFlag)
			assert.Contains(t, err.Error(), tt.flag)
		})
	}
}

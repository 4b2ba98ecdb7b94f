package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph/emit"
)

func TestPrintJSON_WritesIndentedJSON(t *testing.T) {
	var buf bytes.Buffer
	orig := printDest
	printDest = &buf
	defer func() { printDest = orig }()

	require.NoError(t, printJSON(map[string]string{"status": "COMPLETED"}))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "COMPLETED", decoded["status"])
}

func TestRootCommand_RegistersEverySubcommand(t *testing.T) {
	root := buildRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"submit", "get-workflow", "list-reviews", "resolve-review", "expire-stale", "audit-trail"} {
		assert.True(t, names[want], "expected subcommand %q to be registered", want)
	}
}

func TestSubmitCmd_DeclaresInvoiceFlag(t *testing.T) {
	cmd := newSubmitCmd()
	flag := cmd.Flags().Lookup("invoice")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestAuditTrailCmd_RequiresExactlyOneArg(t *testing.T) {
	cmd := newAuditTrailCmd()
	assert.Error(t, cmd.Args(cmd, []string{}))
	assert.NoError(t, cmd.Args(cmd, []string{"wf_1"}))
}

func TestBuildStore_DefaultsToMemory(t *testing.T) {
	st, err := buildStore(domain.DefaultSettings())
	require.NoError(t, err)
	require.NotNil(t, st)
}

func TestBuildStore_SQLiteOpensFile(t *testing.T) {
	t.Setenv("INVOICEFLOW_STORE_DRIVER", "sqlite")
	t.Setenv("INVOICEFLOW_STORE_DSN", filepath.Join(t.TempDir(), "invoiceflow.db"))

	st, err := buildStore(domain.DefaultSettings())
	require.NoError(t, err)
	require.NotNil(t, st)
}

func TestBuildStore_MySQLRequiresDSN(t *testing.T) {
	t.Setenv("INVOICEFLOW_STORE_DRIVER", "mysql")
	t.Setenv("INVOICEFLOW_STORE_DSN", "")

	_, err := buildStore(domain.DefaultSettings())
	assert.Error(t, err)
}

func TestBuildStore_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("INVOICEFLOW_STORE_DRIVER", "postgres")

	_, err := buildStore(domain.DefaultSettings())
	assert.Error(t, err)
}

func TestBuildEmitter_DefaultsToLog(t *testing.T) {
	e, err := buildEmitter()
	require.NoError(t, err)
	assert.IsType(t, &emit.LogEmitter{}, e)
}

func TestBuildEmitter_SelectsOTel(t *testing.T) {
	t.Setenv("INVOICEFLOW_EMITTER", "otel")

	e, err := buildEmitter()
	require.NoError(t, err)
	assert.IsType(t, &emit.OTelEmitter{}, e)
}

func TestBuildEmitter_SelectsPrometheus(t *testing.T) {
	t.Setenv("INVOICEFLOW_EMITTER", "prometheus")

	e, err := buildEmitter()
	require.NoError(t, err)
	assert.IsType(t, &emit.PrometheusEmitter{}, e)
}

func TestBuildEmitter_RejectsUnknown(t *testing.T) {
	t.Setenv("INVOICEFLOW_EMITTER", "datadog")

	_, err := buildEmitter()
	assert.Error(t, err)
}

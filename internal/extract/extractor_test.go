package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/schemacat/schemacat/internal/registry"
)

func seedReader() *registry.MemoryReader {
	r := registry.NewMemoryReader()
	r.AddType("Invoice", "Accounts", []registry.FieldSpec{
		{Name: "name", DataType: "string", System: true},
		{Name: "amount", DataType: "currency"},
	}, []registry.MethodSpec{
		{Name: "calculate_discount", ParameterNames: []string{"discount_percent"}},
	})
	r.AddType("Customer", "Selling", []registry.FieldSpec{
		{Name: "customer_name", DataType: "string"},
	}, nil)
	r.AddHookMethod(registry.MethodSpec{OwnerType: "Invoice", Name: "send_reminder"})
	return r
}

func TestExtractAllTypes(t *testing.T) {
	e := New(seedReader())

	result, err := e.Extract(All())
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Owners, 2)

	invoice := result.Owners[0]
	assert.Equal(t, "Invoice", invoice.Owner)
	assert.Equal(t, "Accounts", invoice.Module)
	assert.Len(t, invoice.Fields, 2)
	require.Len(t, invoice.Methods, 2)
	assert.Equal(t, "calculate_discount", invoice.Methods[0].Name)
	assert.Equal(t, "send_reminder", invoice.Methods[1].Name)
}

func TestExtractSingleType(t *testing.T) {
	e := New(seedReader())

	result, err := e.Extract(SingleType("Customer"))
	require.NoError(t, err)
	require.Len(t, result.Owners, 1)
	assert.Equal(t, "Customer", result.Owners[0].Owner)
	assert.Empty(t, result.Owners[0].Methods)
}

func TestExtractSingleTypeNotFound(t *testing.T) {
	e := New(seedReader())

	_, err := e.Extract(SingleType("Nope"))
	require.Error(t, err)
	assert.True(t, registry.IsNotFound(err))
}

func TestExtractModuleScope(t *testing.T) {
	e := New(seedReader())

	result, err := e.Extract(Module("Selling"))
	require.NoError(t, err)
	require.Len(t, result.Owners, 1)
	assert.Equal(t, "Customer", result.Owners[0].Owner)
}

func TestExtractEmptyModuleIsValid(t *testing.T) {
	e := New(seedReader())

	result, err := e.Extract(Module("Manufacturing"))
	require.NoError(t, err)
	assert.Empty(t, result.Owners)
	assert.Empty(t, result.Errors)
}

func TestExtractUnknownModuleWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := New(seedReader(), WithLogger(zap.New(core)))

	result, err := e.Extract(Module("Manufacturing"))
	require.NoError(t, err)
	assert.Empty(t, result.Owners)
	assert.Equal(t, 1, logs.FilterMessage("module not present in registry").Len())
}

func TestExtractKnownModuleDoesNotWarn(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := New(seedReader(), WithLogger(zap.New(core)))

	result, err := e.Extract(Module("Selling"))
	require.NoError(t, err)
	require.Len(t, result.Owners, 1)
	assert.Zero(t, logs.FilterMessage("module not present in registry").Len())
}

func TestExtractSkipsInfrastructureTypes(t *testing.T) {
	r := seedReader()
	r.AddType("Error Log", "Core", nil, nil)
	e := New(r)

	result, err := e.Extract(All())
	require.NoError(t, err)
	for _, o := range result.Owners {
		assert.NotEqual(t, "Error Log", o.Owner)
	}
}

func TestWithSkipTypesReplacesDefaults(t *testing.T) {
	e := New(seedReader(), WithSkipTypes([]string{"Invoice"}))

	result, err := e.Extract(All())
	require.NoError(t, err)
	require.Len(t, result.Owners, 1)
	assert.Equal(t, "Customer", result.Owners[0].Owner)
}

func TestExtractDeduplicatesMethodSurfaces(t *testing.T) {
	r := registry.NewMemoryReader()
	r.AddType("Invoice", "Accounts", nil, []registry.MethodSpec{
		{Name: "calculate_discount", ParameterNames: []string{"discount_percent"}},
	})
	// Same callable also registered through a hook file.
	r.AddHookMethod(registry.MethodSpec{OwnerType: "Invoice", Name: "calculate_discount"})

	result, err := New(r).Extract(All())
	require.NoError(t, err)
	require.Len(t, result.Owners, 1)
	require.Len(t, result.Owners[0].Methods, 1)
	assert.Equal(t, []string{"discount_percent"}, result.Owners[0].Methods[0].ParameterNames)
}

// failingReader fails field lookups for one type, to exercise per-owner
// error capture.
type failingReader struct {
	*registry.MemoryReader
	failFor string
}

func (r *failingReader) GetFields(typeName string) ([]registry.FieldSpec, error) {
	if typeName == r.failFor {
		return nil, errors.New("controller import failed")
	}
	return r.MemoryReader.GetFields(typeName)
}

func TestExtractContinuesPastOwnerFailure(t *testing.T) {
	e := New(&failingReader{MemoryReader: seedReader(), failFor: "Invoice"})

	result, err := e.Extract(All())
	require.NoError(t, err)
	require.Len(t, result.Owners, 1)
	assert.Equal(t, "Customer", result.Owners[0].Owner)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invoice", result.Errors[0].Owner)
	assert.Contains(t, result.Errors[0].Error(), "controller import failed")
}

func TestExcluded(t *testing.T) {
	assert.True(t, Excluded(registry.FieldSpec{Name: "id", System: true}))
	assert.True(t, Excluded(registry.FieldSpec{Name: "modified", Auditable: true}))
	assert.False(t, Excluded(registry.FieldSpec{Name: "amount"}))
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, `type "Invoice"`, SingleType("Invoice").String())
	assert.Equal(t, `module "Accounts"`, Module("Accounts").String())
	assert.Equal(t, "all types", All().String())
}

package soap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// =============================================================================
// ENVELOPE TESTS
// =============================================================================

var (
	wcfTemplate = bridge.Template{
		Namespace:       "http://tempuri.org/",
		Prefix:          "tem",
		Operation:       "GenerateNewInvoiceAsync",
		QualifiedParams: true,
	}
	wcfSlots = []bridge.Param{
		{Name: "farmerName", Element: "farmerName", Type: bridge.TypeString},
		{Name: "amount", Element: "amount", Type: bridge.TypeDecimal},
	}
	jaxwsTemplate = bridge.Template{
		Namespace: "http://crop.agriservices.com/",
		Prefix:    "crop",
		Operation: "getCrop",
	}
)

func TestEnvelope_Unit_ExactShape(t *testing.T) {
	env, err := BuildEnvelope(wcfTemplate, wcfSlots, []string{"Alice Martin", "1250.75"})
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tem="http://tempuri.org/">` +
		`<soapenv:Header></soapenv:Header>` +
		`<soapenv:Body><tem:GenerateNewInvoiceAsync>` +
		`<tem:farmerName>Alice Martin</tem:farmerName><tem:amount>1250.75</tem:amount>` +
		`</tem:GenerateNewInvoiceAsync></soapenv:Body></soapenv:Envelope>`
	assert.Equal(t, want, string(env))
}

func TestEnvelope_Unit_NamespaceResolution(t *testing.T) {
	env, err := BuildEnvelope(jaxwsTemplate, []bridge.Param{{Name: "id", Element: "arg0", Type: bridge.TypeInt}}, []string{"7"})
	require.NoError(t, err)

	root, err := ParseDocument(env)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeNamespace, root.Name.Space)

	op := root.Body().Child("getCrop")
	require.NotNil(t, op)
	assert.Equal(t, "http://crop.agriservices.com/", op.Name.Space)

	// JAX-WS wrapped style: parameters are unqualified.
	arg := op.Child("arg0")
	require.NotNil(t, arg)
	assert.Equal(t, "", arg.Name.Space)
	assert.Equal(t, "7", arg.Text)
}

func TestEnvelope_Unit_UnprefixedTemplateBindsDefaultNamespace(t *testing.T) {
	tmpl := bridge.Template{Namespace: "urn:example", Operation: "ping"}
	env, err := BuildEnvelope(tmpl, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, string(env), `<ping xmlns="urn:example"></ping>`)

	root, err := ParseDocument(env)
	require.NoError(t, err)
	assert.Equal(t, "urn:example", root.Body().Child("ping").Name.Space)
}

func TestEnvelope_Unit_EscapingKeepsDocumentWellFormed(t *testing.T) {
	hostile := []string{
		`<script>alert("x")</script>`,
		`Tom & Jerry's "farm"`,
		`]]><tem:amount>0</tem:amount><![CDATA[`,
		"tab\tand\nnewline",
	}
	for _, v := range hostile {
		env, err := BuildEnvelope(wcfTemplate, wcfSlots, []string{v, "1"})
		require.NoError(t, err, v)

		root, err := ParseDocument(env)
		require.NoError(t, err, "envelope for %q is not well-formed", v)

		op := root.Body().Child("GenerateNewInvoiceAsync")
		require.NotNil(t, op)
		require.Len(t, op.Children, 2, "value %q altered the structure", v)
		assert.Equal(t, v, op.Children[0].Text)
		assert.Equal(t, "1", op.Children[1].Text)
	}
}

func TestEnvelope_Unit_RejectsTextXMLCannotCarry(t *testing.T) {
	for name, value := range map[string]string{
		"control character": "bad\x01name",
		"invalid utf-8":     "caf\xe9",
		"noncharacter":      "\uFFFF",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := BuildEnvelope(wcfTemplate, wcfSlots, []string{value, "1"})
			assert.ErrorIs(t, err, bridge.ErrInvalidParameter)
		})
	}

	env, err := BuildEnvelope(wcfTemplate, wcfSlots, []string{"line one\r\n\tline two", "1"})
	require.NoError(t, err)
	assert.NotContains(t, string(env), "\uFFFD")
}

func TestEnvelope_Unit_SlotOrderIsDescriptorOrder(t *testing.T) {
	slots := []bridge.Param{{Name: "c", Element: "arg0"}, {Name: "a", Element: "arg1"}, {Name: "b", Element: "arg2"}}
	env, err := BuildEnvelope(jaxwsTemplate, slots, []string{"x", "y", "z"})
	require.NoError(t, err)

	root, err := ParseDocument(env)
	require.NoError(t, err)
	op := root.Body().Child("getCrop")
	var got []string
	for _, c := range op.Children {
		got = append(got, c.Name.Local+"="+c.Text)
	}
	assert.Equal(t, []string{"arg0=x", "arg1=y", "arg2=z"}, got)
}

func TestEnvelope_Unit_RejectsMismatchedSlots(t *testing.T) {
	_, err := BuildEnvelope(wcfTemplate, wcfSlots, []string{"only one"})
	assert.ErrorIs(t, err, bridge.ErrInvalidParameter)

	_, err = BuildEnvelope(bridge.Template{}, nil, nil)
	assert.ErrorIs(t, err, bridge.ErrInvalidParameter)
}

package soap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriservices/farmbridge/internal/bridge"
)

const wcfInvoiceResponse = `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <GetInvoiceDetailsAsyncResponse xmlns="http://tempuri.org/">
      <GetInvoiceDetailsAsyncResult xmlns:a="http://schemas.datacontract.org/2004/07/Models" xmlns:i="http://www.w3.org/2001/XMLSchema-instance">
        <a:Amount>450.75</a:Amount>
        <a:FarmerName>Simulated Farmer</a:FarmerName>
        <a:Id>101</a:Id>
        <a:IssueDate i:nil="true"/>
      </GetInvoiceDetailsAsyncResult>
    </GetInvoiceDetailsAsyncResponse>
  </s:Body>
</s:Envelope>`

func TestDocument_Unit_FieldsIgnorePrefixes(t *testing.T) {
	root, err := ParseDocument([]byte(wcfInvoiceResponse))
	require.NoError(t, err)

	resp, err := ResponseElement(root, "GetInvoiceDetailsAsyncResponse")
	require.NoError(t, err)
	assert.Equal(t, "http://tempuri.org/", resp.Name.Space)

	result := resp.Child("GetInvoiceDetailsAsyncResult")
	require.NotNil(t, result)

	name, ok := result.Field("FarmerName")
	assert.True(t, ok)
	assert.Equal(t, "Simulated Farmer", name)

	id, ok := result.Field("Id")
	assert.True(t, ok)
	assert.Equal(t, "101", id)

	_, ok = result.Field("IssueDate")
	assert.False(t, ok, "xsi:nil fields are absent")
	assert.True(t, result.Child("IssueDate").IsNil())

	_, ok = result.Field("Missing")
	assert.False(t, ok)
}

func TestDocument_Unit_NotWellFormed(t *testing.T) {
	for name, body := range map[string]string{
		"empty":          "",
		"whitespace":     "  \n ",
		"html":           "<html><body>Service Unavailable",
		"unclosed":       `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`,
		"plain text":     "Internal Server Error",
		"mismatched end": "<a><b></a></b>",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument([]byte(body))
			assert.ErrorIs(t, err, bridge.ErrMalformedResponse)
		})
	}
}

func TestDocument_Unit_ResponseElementMissing(t *testing.T) {
	root, err := ParseDocument([]byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><Other/></s:Body></s:Envelope>`))
	require.NoError(t, err)
	_, err = ResponseElement(root, "listCropsResponse")
	assert.ErrorIs(t, err, bridge.ErrMalformedResponse)

	root, err = ParseDocument([]byte(`<listCropsResponse/>`))
	require.NoError(t, err)
	_, err = ResponseElement(root, "listCropsResponse")
	assert.ErrorIs(t, err, bridge.ErrMalformedResponse, "bare element without envelope")
}

// =============================================================================
// FAULT TESTS
// =============================================================================

func TestFault_Unit_SOAP11(t *testing.T) {
	body := `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body>
<S:Fault xmlns:ns4="http://www.w3.org/2003/05/soap-envelope">
  <faultcode>S:Server</faultcode>
  <faultstring>Crop not found</faultstring>
  <detail><ns2:CropFault xmlns:ns2="http://crop.agriservices.com/"><id>9</id></ns2:CropFault></detail>
</S:Fault></S:Body></S:Envelope>`
	root, err := ParseDocument([]byte(body))
	require.NoError(t, err)

	f, ok := FindFault(root)
	require.True(t, ok)
	assert.Equal(t, "S:Server", f.Code)
	assert.Equal(t, "Crop not found", f.Reason)
	assert.Equal(t, "9", f.Detail)
	assert.True(t, errors.Is(f, bridge.ErrBackendFault))
	assert.Equal(t, "soap fault S:Server: Crop not found", f.Error())
}

func TestFault_Unit_SOAP12(t *testing.T) {
	body := `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"><env:Body>
<env:Fault>
  <env:Code><env:Value>env:Receiver</env:Value></env:Code>
  <env:Reason><env:Text xml:lang="en">Invoice store offline</env:Text></env:Reason>
</env:Fault></env:Body></env:Envelope>`
	root, err := ParseDocument([]byte(body))
	require.NoError(t, err)

	f, ok := FindFault(root)
	require.True(t, ok)
	assert.Equal(t, "env:Receiver", f.Code)
	assert.Equal(t, "Invoice store offline", f.Reason)
}

func TestFault_Unit_NoFault(t *testing.T) {
	root, err := ParseDocument([]byte(wcfInvoiceResponse))
	require.NoError(t, err)
	_, ok := FindFault(root)
	assert.False(t, ok)
}

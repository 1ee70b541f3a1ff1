package tseclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instrumentRows = "46348559193224090,IRO1FOLD0001,FOLD1,S*Mobarakeh Steel,0,فولاد,فولاد مباركه اصفهان,0,20230911,1,0,0,0,0,0,27 ,2710,300;" +
	"32097828799138957,IRXZXOCOVD61,,Total Index,0,شاخص كل,شاخص كل,0,20230911,0,0,0,0,0,0,X ,,600;" +
	"35425587644337450,IRO1MKBT0001,MKBT1,Mellat Bank,0,وبملت,بانك ملت,0,20230910,1,0,0,0,0,0,57,5710,300"

func soapResponse(result string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
<soap:Body><InstrumentResponse xmlns="http://tsetmc.com/"><InstrumentResult>` + result + `</InstrumentResult></InstrumentResponse></soap:Body>
</soap:Envelope>`
}

func TestInstrumentsList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, soapAction, r.Header.Get("SOAPAction"))
		assert.Contains(t, r.Header.Get("Content-Type"), "text/xml")

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), `<Instrument xmlns="http://tsetmc.com/">`)
		assert.Contains(t, string(body), "<UserName>alice</UserName>")
		assert.Contains(t, string(body), "<Flow>0</Flow>")

		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write([]byte(soapResponse(instrumentRows)))
	}))
	defer srv.Close()

	c := NewClient(time.Second, WithURL(srv.URL), WithCredentials("alice", "secret"))
	instruments, indices, err := c.InstrumentsList(context.Background())
	require.NoError(t, err)
	require.Len(t, instruments, 2)
	require.Len(t, indices, 1)

	fold := instruments[0]
	assert.Equal(t, "IRO1FOLD0001", fold.ISIN)
	assert.Equal(t, "46348559193224090", fold.TsetmcCode)
	assert.Equal(t, "فولاد", fold.Ticker)
	assert.Equal(t, "S*Mobarakeh Steel", fold.NameEnglish)
	assert.Equal(t, int64(27), fold.SectorCode)
	assert.Equal(t, int64(2710), fold.SubSectorCode)
	assert.Equal(t, int64(300), fold.TypeID)
	assert.Equal(t, int64(1), fold.MarketCode)
	assert.Equal(t, time.Date(2023, 9, 11, 0, 0, 0, 0, time.UTC), fold.LastChangeDate)
	assert.False(t, fold.IsIndex)

	idx := indices[0]
	assert.True(t, idx.IsIndex)
	assert.Equal(t, "شاخص كل", idx.Ticker)
	assert.Zero(t, idx.SectorCode)
	assert.Equal(t, int64(600), idx.TypeID)
}

func TestInstrumentsListBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := NewClient(time.Second, WithURL(srv.URL)).InstrumentsList(context.Background())
	var se *ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestInstrumentsListMissingResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body/></soap:Envelope>`))
	}))
	defer srv.Close()

	_, _, err := NewClient(time.Second, WithURL(srv.URL)).InstrumentsList(context.Background())
	assert.ErrorIs(t, err, errNoResult)
}

func TestParseRowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"short", "1,IRO1FOLD0001,x"},
		{"bad type", strings.Replace(strings.Split(instrumentRows, ";")[0], ",300", ",abc", 1)},
		{"bad date", strings.Replace(strings.Split(instrumentRows, ";")[0], "20230911", "2023-09", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRow(strings.Split(tt.row, ","))
			assert.Error(t, err)
		})
	}
}

func TestRequestBody(t *testing.T) {
	b, err := NewClient(0).requestBody()
	require.NoError(t, err)
	s := string(b)
	assert.True(t, strings.HasPrefix(s, "<?xml"))
	assert.Contains(t, s, `<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
	assert.Contains(t, s, `<soap:Body><Instrument xmlns="http://tsetmc.com/"><UserName>string</UserName><Password>string</Password><Flow>0</Flow></Instrument></soap:Body>`)
}

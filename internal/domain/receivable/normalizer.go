package receivable

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/cobranca/backend/internal/domain/shared/valueobject"
)

// rawRecord mirrors one upstream invoice row before typing. Every field is
// a json.RawMessage-friendly loose type because the feeds disagree on
// whether amounts are numbers or locale-formatted strings.
type rawRecord struct {
	CodigoCliente    flexString `json:"codigo_cliente"`
	Loja             flexString `json:"loja"`
	NumeroFatura     flexString `json:"numero_fatura"`
	Parcela          flexString `json:"parcela"`
	DataEmissao      flexString `json:"data_emissao"`
	DataVencimento   flexString `json:"data_vencimento"`
	DataCancelamento flexString `json:"data_cancelamento"`
	DataBaixa        flexString `json:"data_baixa"`
	ValorFatura      flexString `json:"vl_fatura"`
	ValorPago        flexString `json:"vl_pago"`
	ValorCorrigido   flexString `json:"vl_corrigido"`
	Desconto         flexString `json:"vl_desconto"`
	Juros            flexString `json:"vl_juros"`
	Multa            flexString `json:"vl_multa"`
	Acrescimo        flexString `json:"vl_acrescimo"`
	TipoDocumento    flexString `json:"tipo_documento"`
	TipoCobranca     flexString `json:"tipo_cobranca"`
	CodigoPortador   flexString `json:"codigo_portador"`
	NomePortador     flexString `json:"nome_portador"`
}

// flexString decodes JSON strings, numbers, booleans and null into a string
type flexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = ""
			return nil
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) str() string { return string(f) }

func (f flexString) dec() decimal.Decimal {
	return valueobject.ParseDecimalBR(string(f))
}

// extractor is one unwrap strategy: given the raw payload, return the inner
// JSON array if this shape matches.
type extractor func(payload []byte) ([]json.RawMessage, bool)

// extractors is the fixed-priority unwrap table. Adding a new upstream
// shape is a new row here, not a new conditional.
var extractors = []extractor{
	bareArray,
	wrappedUnder("data"),
	nestedUnder("data", "data"),
	wrappedUnder("dados"),
	wrappedUnder("result"),
	wrappedUnder("contas"),
	anyObjectValue,
}

func bareArray(payload []byte) ([]json.RawMessage, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal(payload, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func wrappedUnder(key string) extractor {
	return func(payload []byte) ([]json.RawMessage, bool) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return nil, false
		}
		inner, ok := obj[key]
		if !ok {
			return nil, false
		}
		return bareArray(inner)
	}
}

func nestedUnder(outer, inner string) extractor {
	return func(payload []byte) ([]json.RawMessage, bool) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return nil, false
		}
		mid, ok := obj[outer]
		if !ok {
			return nil, false
		}
		return wrappedUnder(inner)(mid)
	}
}

// anyObjectValue is the last-resort shape: enumerate the object's values and
// take the first one that is an array.
func anyObjectValue(payload []byte) ([]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, false
	}
	for _, v := range obj {
		if arr, ok := bareArray(v); ok {
			return arr, true
		}
	}
	return nil, false
}

// Normalize converts an upstream payload of unknown shape into a canonical
// invoice list. Unrecognized shapes and malformed rows degrade to "no
// records"; normalization never fails, because one bad branch feed must not
// void the merged result.
func Normalize(payload []byte) []InvoiceRecord {
	if len(payload) == 0 {
		return nil
	}

	var rows []json.RawMessage
	for _, extract := range extractors {
		if arr, ok := extract(payload); ok {
			rows = arr
			break
		}
	}

	records := make([]InvoiceRecord, 0, len(rows))
	for _, row := range rows {
		var raw rawRecord
		if err := json.Unmarshal(row, &raw); err != nil {
			continue
		}
		rec := raw.toRecord()
		if rec.CodigoCliente == "" && rec.NumeroFatura == "" {
			// Not an invoice row (null, scalar, unrelated object).
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (raw *rawRecord) toRecord() InvoiceRecord {
	return InvoiceRecord{
		CodigoCliente:    raw.CodigoCliente.str(),
		Loja:             raw.Loja.str(),
		NumeroFatura:     raw.NumeroFatura.str(),
		Parcela:          raw.Parcela.str(),
		DataEmissao:      ParseDate(raw.DataEmissao.str()),
		DataVencimento:   ParseDate(raw.DataVencimento.str()),
		DataCancelamento: ParseDate(raw.DataCancelamento.str()),
		DataBaixa:        ParseDate(raw.DataBaixa.str()),
		ValorFatura:      raw.ValorFatura.dec(),
		ValorPago:        raw.ValorPago.dec(),
		ValorCorrigido:   raw.ValorCorrigido.dec(),
		Desconto:         raw.Desconto.dec(),
		Juros:            raw.Juros.dec(),
		Multa:            raw.Multa.dec(),
		Acrescimo:        raw.Acrescimo.dec(),
		TipoDocumento:    raw.TipoDocumento.str(),
		TipoCobranca:     raw.TipoCobranca.str(),
		CodigoPortador:   raw.CodigoPortador.str(),
		NomePortador:     raw.NomePortador.str(),
	}
}

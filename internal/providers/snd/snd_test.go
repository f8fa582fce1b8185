package snd

import (
	"math"
	"testing"
)

const tradesSample = "SND - Precos de Negociacao\n" +
	"\n" +
	"Data\tEmissor\tCódigo do Ativo\tISIN\tQuantidade\tNúmero de Negócios\tPU Mínimo\tPU Médio\tPU Máximo\n" +
	"28/08/2026\tPetrobras\tPETR26\tBRPETRDBS036\t1.500\t12\t1.018,00\t1.020,50\t1.024,10\n" +
	"28/08/2026\tVale\tVALE29\tBRVALEDBS010\t200\t3\t985,00\t987,30\t990,00\n" +
	"28/08/2026\t\t\t\t\t\t\t\t\n"

func TestParseTrades(t *testing.T) {
	tab := ParseTrades(tradesSample)
	if tab.Len() != 2 {
		t.Fatalf("got %d rows, want 2", tab.Len())
	}
	row := tab.Rows()[0]
	if row.String("codigo") != "PETR26" {
		t.Errorf("codigo = %q", row.String("codigo"))
	}
	if row.String("emissor") != "Petrobras" {
		t.Errorf("emissor = %q", row.String("emissor"))
	}
	if v := row.FloatOr("pu_medio", -1); v != 1020.50 {
		t.Errorf("pu_medio = %v", v)
	}
	if v := row.FloatOr("quantidade", -1); v != 1500 {
		t.Errorf("quantidade = %v", v)
	}
	if v := row.FloatOr("numero_negocios", -1); v != 12 {
		t.Errorf("numero_negocios = %v", v)
	}
}

func TestParseTradesDerivesVolume(t *testing.T) {
	tab := ParseTrades(tradesSample)
	row := tab.Rows()[0]
	want := 1020.50 * 1500
	if v := row.FloatOr("volume_total", -1); math.Abs(v-want) > 1e-6 {
		t.Errorf("volume_total = %v, want %v", v, want)
	}
}

func TestParseTradesIgnoresISINColumn(t *testing.T) {
	// "Código do Ativo" must win the code mapping even with an ISIN
	// column (also a code, by name) next to it.
	tab := ParseTrades(tradesSample)
	if got := tab.Rows()[1].String("codigo"); got != "VALE29" {
		t.Errorf("codigo = %q, want the asset code, not the ISIN", got)
	}
}

func TestParseTradesHTMLFallback(t *testing.T) {
	html := `<html><body><table>
		<tr><th>Código do Ativo</th><th>Emissor</th><th>Quantidade</th><th>Número de Negócios</th><th>PU Médio</th></tr>
		<tr><td>ABCD11</td><td>Emissora Alfa</td><td>100</td><td>2</td><td>1.000,00</td></tr>
	</table></body></html>`
	tab := ParseTrades(html)
	if tab.Len() != 1 {
		t.Fatalf("got %d rows from HTML, want 1", tab.Len())
	}
	row := tab.Rows()[0]
	if row.String("codigo") != "ABCD11" {
		t.Errorf("codigo = %q", row.String("codigo"))
	}
	if v := row.FloatOr("volume_total", -1); v != 100000 {
		t.Errorf("volume_total = %v", v)
	}
}

func TestParseTradesGarbage(t *testing.T) {
	if tab := ParseTrades("not a table at all"); tab.Len() != 0 {
		t.Errorf("got %d rows from garbage", tab.Len())
	}
}

const registrySample = "SND - Caracteristicas das Debentures\n" +
	"Posicao: 28/08/2026\n" +
	"\n" +
	"\n" +
	"Codigo do Ativo\tEmpresa\tSituacao\tIndice\tDeb. Incent. (Lei 12.431)\tData de Vencimento\n" +
	"PETR26\tPetrobras S.A.\tRegistrada\tIPCA\tS\t15/08/2031\n" +
	"ABCD11\tEmissora Alfa\tRegistrada\tDI\tN\t01/03/2029\n"

func TestParseRegistry(t *testing.T) {
	tab := ParseRegistry(registrySample)
	if tab.Len() != 2 {
		t.Fatalf("got %d rows, want 2", tab.Len())
	}
	row := tab.Rows()[0]
	if row.String("codigo_ativo") != "PETR26" {
		t.Errorf("codigo_ativo = %q", row.String("codigo_ativo"))
	}
	if row.String("emissor") != "Petrobras S.A." {
		t.Errorf("emissor = %q", row.String("emissor"))
	}
	if row.String("indexador") != "IPCA" {
		t.Errorf("indexador = %q", row.String("indexador"))
	}
	if row.String("deb_incent") != "S" {
		t.Errorf("deb_incent = %q", row.String("deb_incent"))
	}
	if row.String("data_vencimento") != "15/08/2031" {
		t.Errorf("data_vencimento = %q", row.String("data_vencimento"))
	}
}

package templates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractFields(t *testing.T) {
	markup := `<html>
<body>
  <h1>{{ client.name }}</h1>
  <p>{{invoice_number}} issued {{ date }}</p>
  <p>{{ date }}</p>
  {% if discount %}<p>never a field</p>{% endif %}
  <img src="{{ logo }}">
</body>
</html>`

	fields := ExtractFields(markup)
	require.ElementsMatch(t, []string{"client.name", "invoice_number", "date", "logo"}, fields)
}

func TestExtractFieldsIsIdempotent(t *testing.T) {
	markup := `{{b}} {{ a }} {{ a.b }} {{b}}`
	first := ExtractFields(markup)
	second := ExtractFields(markup)
	require.Equal(t, first, second)
	require.ElementsMatch(t, []string{"a", "a.b", "b"}, first)
}

func TestExtractFieldsIgnoresExpressions(t *testing.T) {
	require.Empty(t, ExtractFields(`{% for item in items %}{% endfor %}`))
	require.Empty(t, ExtractFields(`{{ total | round(2) }}`))
	require.Empty(t, ExtractFields(``))
}

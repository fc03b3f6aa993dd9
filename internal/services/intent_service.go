package services

import (
	"regexp"
	"strings"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
)

type intentRule struct {
	pattern *regexp.Regexp
	intent  models.Intent
}

// intentRules is evaluated top to bottom on lower-cased, trimmed text; the
// first match wins. Numeric menu shortcuts are exact-match entries.
var intentRules = []intentRule{
	{regexp.MustCompile(`^1$`), models.IntentQueryFares},
	{regexp.MustCompile(`^2$`), models.IntentQueryHours},
	{regexp.MustCompile(`^3$`), models.IntentStartBooking},
	{regexp.MustCompile(`^4$`), models.IntentQueryServices},
	{regexp.MustCompile(`^5$`), models.IntentQueryContact},
	{regexp.MustCompile(`(ya )?pagu[eé]|ya pag[oó]|comprobante|confirmar (el )?pago|pago realizado|transferencia`), models.IntentConfirmPayment},
	{regexp.MustCompile(`^(hola|holi|buen[oa]s|buen d[ií]a|saludos|hey|menu|menú|inicio|empezar)`), models.IntentGreeting},
	{regexp.MustCompile(`tarifas?|precios?|cu[aá]nto (cuesta|vale|sale)|valor|rutas?`), models.IntentQueryFares},
	{regexp.MustCompile(`horarios?|\bhoras?\b|salidas?`), models.IntentQueryHours},
	{regexp.MustCompile(`reserv|comprar|pasajes?|tiquetes?|boletos?|viajar`), models.IntentStartBooking},
	{regexp.MustCompile(`servicios?|encomiendas?|paquetes?|carga|env[ií]os?`), models.IntentQueryServices},
	{regexp.MustCompile(`contacto|tel[eé]fono|direcci[oó]n|oficina|informaci[oó]n|ubicaci[oó]n`), models.IntentQueryContact},
	{regexp.MustCompile(`^(gracias|muchas gracias|chao|chau|adi[oó]s|hasta luego|bye|nos vemos)`), models.IntentFarewell},
}

// Classify maps free text to an intent. ok is false for unmatched text.
func Classify(text string) (models.Intent, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return models.IntentNone, false
	}
	for _, rule := range intentRules {
		if rule.pattern.MatchString(t) {
			return rule.intent, true
		}
	}
	return models.IntentNone, false
}

var cancelWords = map[string]bool{
	"cancelar": true,
	"cancel":   true,
	"menu":     true,
	"menú":     true,
	"salir":    true,
}

// isCancel reports whether text asks to abandon the current flow.
func isCancel(text string) bool {
	return cancelWords[strings.ToLower(strings.TrimSpace(text))]
}

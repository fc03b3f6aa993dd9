package services

import (
	"fmt"
	"strings"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"
)

// Replies renders every outbound text of the conversation.
type Replies struct {
	CompanyName         string
	PaymentInstructions string
}

func (r Replies) Menu() string {
	return fmt.Sprintf(`👋 ¡Bienvenido a *%s*!

¿Qué necesitas? Responde con el número:

🚌 *1* - Ver tarifas y rutas
🕒 *2* - Ver horarios de salida
🎫 *3* - Reservar viaje
📦 *4* - Otros servicios
📞 *5* - Contacto e información

*Ejemplo:* Escribe "1" para ver tarifas`, r.CompanyName)
}

// NotUnderstood is the fallback for unclassified text.
func (r Replies) NotUnderstood() string {
	return "🤔 No entendí tu mensaje.\n\n" + r.Menu()
}

func (r Replies) Fares(routes []models.Route) string {
	var b strings.Builder
	b.WriteString("🚌 *Tarifas disponibles:*\n\n")
	for _, rt := range routes {
		fmt.Fprintf(&b, "• %s: %s\n", strings.ToUpper(rt.Key), utils.FormatPesos(rt.Fare))
	}
	b.WriteString("\n¿Quieres hacer una reserva? Escribe \"3\"")
	return b.String()
}

func (r Replies) Schedule(routes []models.Route) string {
	var b strings.Builder
	b.WriteString("🕒 *Horarios disponibles:*\n\n")
	for _, rt := range routes {
		fmt.Fprintf(&b, "• %s: %s\n", strings.ToUpper(rt.Key), strings.Join(rt.DepartureTimes, ", "))
	}
	return b.String()
}

func (r Replies) Services() string {
	return `📦 *Otros servicios*

• Envío de encomiendas y paquetes
• Transporte de carga liviana
• Viajes expresos para grupos

Escribe "5" para hablar con un asesor.`
}

func (r Replies) Contact() string {
	return fmt.Sprintf(`📞 *Contacto e información*

%s
Oficina principal: Terminal de Transporte de Quibdó
Horario de atención: 5:00 a.m. - 7:00 p.m.

Escribe "hola" para volver al menú.`, r.CompanyName)
}

func (r Replies) Farewell() string {
	return "🙌 ¡Gracias por escribirnos! Cuando quieras viajar, escribe \"hola\"."
}

func (r Replies) AskName() string {
	return "📝 *INICIANDO RESERVA*\n\nPor favor, escribe tu *nombre completo*:\n\n(Escribe \"cancelar\" en cualquier momento para salir)"
}

func (r Replies) AskDocument() string {
	return "📋 *Nombre registrado*\n\nAhora escribe tu *número de documento*:"
}

func (r Replies) InvalidDocument() string {
	return "⚠️ El número de documento debe tener entre 6 y 12 dígitos.\n\nEscribe tu *número de documento* nuevamente:"
}

func (r Replies) AskRoute(routes []models.Route) string {
	var b strings.Builder
	b.WriteString("🗺️ *Selecciona tu ruta* (responde con el número):\n\n")
	for i, rt := range routes {
		fmt.Fprintf(&b, "*%d* - %s (%s)\n", i+1, strings.ToUpper(rt.Key), utils.FormatPesos(rt.Fare))
	}
	return b.String()
}

func (r Replies) InvalidRoute(routes []models.Route) string {
	return "⚠️ Opción no válida.\n\n" + r.AskRoute(routes)
}

func (r Replies) AskTime(route models.Route) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🕒 *Horarios para %s* (responde con el número):\n\n", strings.ToUpper(route.Key))
	for i, t := range route.DepartureTimes {
		fmt.Fprintf(&b, "*%d* - %s\n", i+1, t)
	}
	return b.String()
}

func (r Replies) InvalidTime(route models.Route) string {
	return "⚠️ Opción no válida.\n\n" + r.AskTime(route)
}

func (r Replies) Booked(rec models.Reservation) string {
	return fmt.Sprintf(`✅ *RESERVA REGISTRADA*

Nombre: %s
Documento: %s
Ruta: %s
Horario: %s
Valor: %s

💳 %s

Cuando pagues, envía la *foto del comprobante* por este chat.`,
		rec.Name, rec.DocumentID, strings.ToUpper(rec.Route), rec.DepartureTime,
		utils.FormatPesos(rec.Fare), r.PaymentInstructions)
}

func (r Replies) AskProof() string {
	return "📸 Para confirmar tu pago envía la *foto del comprobante* por este chat."
}

func (r Replies) PaymentConfirmed(rec models.Reservation) string {
	return fmt.Sprintf(`🎉 *PAGO CONFIRMADO*

Tu viaje %s a las %s quedó confirmado a nombre de %s.
¡Buen viaje!`, strings.ToUpper(rec.Route), rec.DepartureTime, rec.Name)
}

func (r Replies) NoPendingReservation() string {
	return "🔎 No encontramos una reserva pendiente de pago. Escribe \"3\" para reservar."
}

func (r Replies) PendingExists() string {
	return "⏳ Ya tienes una reserva pendiente de pago. Envía la foto del comprobante o escribe \"cancelar\"."
}

func (r Replies) MediaOutsidePayment() string {
	return "📎 Recibimos tu archivo, pero primero debes completar una reserva. Escribe \"3\" para reservar."
}

func (r Replies) Cancelled() string {
	return "❌ Proceso cancelado.\n\n" + r.Menu()
}

func (r Replies) Retry() string {
	return "❌ Ocurrió un error. Por favor, intenta nuevamente."
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"
)

const sender = "573001112233@s.whatsapp.net"

func send(t *testing.T, env *testEnv, text string) string {
	t.Helper()
	reply, err := env.svc.Handle(context.Background(), models.InboundEvent{SenderID: sender, Text: text})
	if err != nil {
		t.Fatalf("Handle(%q) error: %v", text, err)
	}
	return reply
}

func sendMedia(t *testing.T, env *testEnv) string {
	t.Helper()
	reply, err := env.svc.Handle(context.Background(), models.InboundEvent{
		SenderID: sender,
		Media:    &models.Media{MimeType: "image/jpeg", Data: []byte("jpeg")},
	})
	if err != nil {
		t.Fatalf("Handle(media) error: %v", err)
	}
	return reply
}

func bookThrough(t *testing.T, env *testEnv) {
	t.Helper()
	send(t, env, "3")
	send(t, env, "Maria Lopez")
	send(t, env, "123456")
	send(t, env, "1")
	send(t, env, "1")
}

func TestBookingScenario(t *testing.T) {
	env := newTestEnv()

	reply := send(t, env, "hola")
	for _, opt := range []string{"*1*", "*2*", "*3*", "*4*", "*5*"} {
		if !strings.Contains(reply, opt) {
			t.Fatalf("menu missing option %s: %q", opt, reply)
		}
	}

	reply = send(t, env, "3")
	if !strings.Contains(reply, "nombre completo") || env.state(sender) != models.StateCollectingName {
		t.Fatalf("expected name prompt, got %q (%s)", reply, env.state(sender))
	}

	reply = send(t, env, "Maria Lopez")
	if !strings.Contains(reply, "número de documento") || env.state(sender) != models.StateCollectingDocument {
		t.Fatalf("expected document prompt, got %q", reply)
	}

	reply = send(t, env, "12345")
	if !strings.Contains(reply, "entre 6 y 12") || env.state(sender) != models.StateCollectingDocument {
		t.Fatalf("expected document re-prompt, got %q", reply)
	}

	reply = send(t, env, "123456")
	if env.state(sender) != models.StateSelectingRoute {
		t.Fatalf("expected route selection, state %s", env.state(sender))
	}
	for i, rt := range env.svc.Catalog.ListRoutes() {
		line := "*" + string(rune('1'+i)) + "* - " + strings.ToUpper(rt.Key)
		if !strings.Contains(reply, line) {
			t.Fatalf("route list missing %q in %q", line, reply)
		}
	}

	reply = send(t, env, "1")
	if !strings.Contains(reply, "6:00 a.m.") || !strings.Contains(reply, "4:00 p.m.") || env.state(sender) != models.StateSelectingTime {
		t.Fatalf("expected istmina times, got %q", reply)
	}

	reply = send(t, env, "1")
	if !strings.Contains(reply, "Paga por Nequi") || !strings.Contains(reply, "$30.000") {
		t.Fatalf("expected summary with payment instructions, got %q", reply)
	}
	if env.state(sender) != models.StateAwaitingPayment {
		t.Fatalf("expected awaiting payment, state %s", env.state(sender))
	}

	rows := env.ledger.snapshot()
	if len(rows) != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", len(rows))
	}
	got := rows[0]
	if got.Status != models.StatusPendingPayment || got.Name != "Maria Lopez" || got.DocumentID != "123456" ||
		got.Route != "quibdó → istmina" || got.DepartureTime != "6:00 a.m." || got.Fare != 30000 || got.Phone != sender {
		t.Fatalf("unexpected ledger row %+v", got)
	}
}

func TestDocumentLengthBoundaries(t *testing.T) {
	cases := []struct {
		input  string
		accept bool
	}{
		{"12345", false},
		{"123456", true},
		{"123.456.789.012", true},
		{"1234567890123", false},
		{"C.C. 1-077-000", true},
		{"abc", false},
	}
	for _, tc := range cases {
		env := newTestEnv()
		send(t, env, "3")
		send(t, env, "Ana")
		send(t, env, tc.input)
		want := models.StateCollectingDocument
		if tc.accept {
			want = models.StateSelectingRoute
		}
		if got := env.state(sender); got != want {
			t.Fatalf("document %q: state %s, want %s", tc.input, got, want)
		}
		sess, _ := env.store.Get(sender)
		if sess.Draft.Name != "Ana" {
			t.Fatalf("document %q: name lost from draft", tc.input)
		}
	}
}

func TestCollectingStatesTakeTextLiterally(t *testing.T) {
	env := newTestEnv()
	send(t, env, "3")
	send(t, env, "1")
	sess, _ := env.store.Get(sender)
	if sess.Draft.Name != "1" || sess.State != models.StateCollectingDocument {
		t.Fatalf("\"1\" should be taken as the name, got %+v", sess)
	}
}

func TestInvalidSelectionsRepromptWithoutStateLoss(t *testing.T) {
	env := newTestEnv()
	send(t, env, "3")
	send(t, env, "Maria")
	send(t, env, "123456")

	for _, in := range []string{"0", "8", "dos", "-1"} {
		reply := send(t, env, in)
		if !strings.Contains(reply, "Opción no válida") || env.state(sender) != models.StateSelectingRoute {
			t.Fatalf("route %q: expected re-prompt, got %q (%s)", in, reply, env.state(sender))
		}
	}
	send(t, env, "3")
	for _, in := range []string{"3", "x"} {
		reply := send(t, env, in)
		if !strings.Contains(reply, "Opción no válida") || env.state(sender) != models.StateSelectingTime {
			t.Fatalf("time %q: expected re-prompt, got %q", in, reply)
		}
	}
	sess, _ := env.store.Get(sender)
	if sess.Draft.RouteKey != "quibdó → medellín" || sess.Draft.DocumentID != "123456" {
		t.Fatalf("draft lost: %+v", sess.Draft)
	}
	if len(env.ledger.snapshot()) != 0 {
		t.Fatalf("no row expected before a valid time")
	}
}

func TestLedgerFailureKeepsSelectingTime(t *testing.T) {
	env := newTestEnv()
	send(t, env, "3")
	send(t, env, "Maria")
	send(t, env, "123456")
	send(t, env, "1")

	env.ledger.saveErr = errors.New("disk full")
	reply, err := env.svc.Handle(context.Background(), models.InboundEvent{SenderID: sender, Text: "2"})
	if !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if !strings.Contains(reply, "intenta nuevamente") {
		t.Fatalf("expected retry reply, got %q", reply)
	}
	if env.state(sender) != models.StateSelectingTime {
		t.Fatalf("state advanced past failed write: %s", env.state(sender))
	}
	sess, _ := env.store.Get(sender)
	if sess.Draft.DepartureTime != "" || sess.Draft.Fare != 0 {
		t.Fatalf("draft changed on failed write: %+v", sess.Draft)
	}

	env.ledger.saveErr = nil
	send(t, env, "2")
	if env.state(sender) != models.StateAwaitingPayment || len(env.ledger.snapshot()) != 1 {
		t.Fatalf("retry did not complete booking")
	}
}

func TestPaymentProofConfirmsReservation(t *testing.T) {
	env := newTestEnv()
	bookThrough(t, env)

	if reply := send(t, env, "ya pagué"); !strings.Contains(reply, "comprobante") || env.state(sender) != models.StateAwaitingPayment {
		t.Fatalf("expected proof prompt, got %q", reply)
	}

	reply := sendMedia(t, env)
	if !strings.Contains(reply, "PAGO CONFIRMADO") {
		t.Fatalf("expected confirmation, got %q", reply)
	}
	rows := env.ledger.snapshot()
	if rows[0].Status != models.StatusPaymentConfirmed || rows[0].ConfirmationTimestamp == nil {
		t.Fatalf("row not confirmed: %+v", rows[0])
	}
	if rows[0].ProofReference != "proofs/123456.jpg" {
		t.Fatalf("proof reference not recorded: %q", rows[0].ProofReference)
	}
	if len(env.notifier.confirmed) != 1 || env.notifier.confirmed[0].ID != rows[0].ID {
		t.Fatalf("notifier not invoked with confirmed row")
	}
	sess, _ := env.store.Get(sender)
	if sess.State != models.StateMenu || sess.Draft != (models.Draft{}) {
		t.Fatalf("session not reset: %+v", sess)
	}
}

func TestConfirmationTwiceReportsNotFound(t *testing.T) {
	env := newTestEnv()
	bookThrough(t, env)
	sendMedia(t, env)

	savesBefore := env.ledger.saves
	before := env.ledger.snapshot()
	reply := send(t, env, "ya pagué")
	if !strings.Contains(reply, "No encontramos una reserva pendiente") {
		t.Fatalf("expected not found, got %q", reply)
	}
	if env.ledger.saves != savesBefore {
		t.Fatalf("second confirmation wrote the ledger")
	}
	after := env.ledger.snapshot()
	if len(after) != len(before) || after[0].ConfirmationTimestamp == nil || !after[0].ConfirmationTimestamp.Equal(*before[0].ConfirmationTimestamp) {
		t.Fatalf("ledger mutated by second confirmation")
	}
	if len(env.notifier.confirmed) != 1 {
		t.Fatalf("notifier invoked twice")
	}
}

func TestProofStorageFailureStillConfirms(t *testing.T) {
	env := newTestEnv()
	env.proofs.err = errors.New("read-only fs")
	bookThrough(t, env)

	if reply := sendMedia(t, env); !strings.Contains(reply, "PAGO CONFIRMADO") {
		t.Fatalf("expected confirmation, got %q", reply)
	}
	if rows := env.ledger.snapshot(); rows[0].ProofReference != "" || rows[0].Status != models.StatusPaymentConfirmed {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}

func TestMediaOutsidePaymentIsAcknowledged(t *testing.T) {
	env := newTestEnv()
	reply := sendMedia(t, env)
	if !strings.Contains(reply, "Recibimos tu archivo") {
		t.Fatalf("unexpected reply %q", reply)
	}
	send(t, env, "3")
	sendMedia(t, env)
	if env.state(sender) != models.StateCollectingName {
		t.Fatalf("media changed booking state: %s", env.state(sender))
	}
	if len(env.proofs.stored) != 0 {
		t.Fatalf("proof stored outside payment state")
	}
}

func TestCancelResetsWithoutRollback(t *testing.T) {
	env := newTestEnv()
	send(t, env, "3")
	send(t, env, "Maria")
	if reply := send(t, env, "cancelar"); !strings.Contains(reply, "Proceso cancelado") {
		t.Fatalf("unexpected cancel reply %q", reply)
	}
	if env.state(sender) != models.StateMenu {
		t.Fatalf("cancel did not reset, state %s", env.state(sender))
	}

	bookThrough(t, env)
	send(t, env, "cancelar")
	if env.state(sender) != models.StateMenu {
		t.Fatalf("cancel from awaiting payment did not reset")
	}
	if rows := env.ledger.snapshot(); len(rows) != 1 || rows[0].Status != models.StatusPendingPayment {
		t.Fatalf("cancel must not touch the ledger: %+v", rows)
	}
}

func TestStartBookingWhileAwaitingPayment(t *testing.T) {
	env := newTestEnv()
	bookThrough(t, env)
	reply := send(t, env, "3")
	if !strings.Contains(reply, "reserva pendiente") || env.state(sender) != models.StateAwaitingPayment {
		t.Fatalf("second booking should be refused, got %q", reply)
	}
	if len(env.ledger.snapshot()) != 1 {
		t.Fatalf("unexpected extra ledger rows")
	}
}

func TestRebookAfterCancelReusesPendingRow(t *testing.T) {
	env := newTestEnv()
	bookThrough(t, env)
	first := env.ledger.snapshot()[0]
	send(t, env, "cancelar")

	send(t, env, "3")
	send(t, env, "Maria Lopez")
	send(t, env, "123456")
	send(t, env, "2")
	reply := send(t, env, "1")
	if !strings.Contains(reply, "reserva pendiente") || env.state(sender) != models.StateAwaitingPayment {
		t.Fatalf("rebooking the same document should point at the pending row, got %q", reply)
	}
	if rows := env.ledger.snapshot(); len(rows) != 1 {
		t.Fatalf("expected one pending row per document, got %d", len(rows))
	}

	sendMedia(t, env)
	rows := env.ledger.snapshot()
	if len(rows) != 1 || rows[0].ID != first.ID || rows[0].Status != models.StatusPaymentConfirmed {
		t.Fatalf("payment should confirm the original row: %+v", rows)
	}
}

func TestBookingLogCarriesRequestIDAndSender(t *testing.T) {
	var buf bytes.Buffer
	utils.SetLogOutput(&buf)
	utils.InitLogger("info", "json")
	defer func() {
		utils.SetLogOutput(os.Stdout)
		utils.InitLogger("info", "text")
	}()

	env := newTestEnv()
	ctx := utils.WithRequestID(context.Background(), "req-42")
	for _, text := range []string{"3", "Maria Lopez", "123456", "1", "1"} {
		if _, err := env.svc.Handle(ctx, models.InboundEvent{SenderID: sender, Text: text}); err != nil {
			t.Fatalf("Handle(%q) error: %v", text, err)
		}
	}

	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry["module"] != "BOOKING" || entry["action"] != "append" {
			continue
		}
		found = true
		if entry["request_id"] != "req-42" || entry["sender"] != sender {
			t.Fatalf("unexpected log fields %v", entry)
		}
	}
	if !found {
		t.Fatalf("booking append was not logged: %s", buf.String())
	}
}

func TestIntentReplies(t *testing.T) {
	env := newTestEnv()
	cases := map[string]string{
		"1":        "$120.000",
		"2":        "Horarios disponibles",
		"4":        "Otros servicios",
		"5":        "Contacto",
		"gracias":  "Gracias por escribirnos",
		"qwerty":   "No entendí",
		"ya pagué": "No encontramos",
	}
	for in, want := range cases {
		if reply := send(t, env, in); !strings.Contains(reply, want) {
			t.Fatalf("%q: expected %q in %q", in, want, reply)
		}
		if env.state(sender) != models.StateMenu {
			t.Fatalf("%q changed state to %s", in, env.state(sender))
		}
	}
}

func TestGroupAndEmptyMessagesIgnored(t *testing.T) {
	env := newTestEnv()
	reply, err := env.svc.Handle(context.Background(), models.InboundEvent{SenderID: "123@g.us", Text: "hola", IsGroup: true})
	if err != nil || reply != "" {
		t.Fatalf("group message handled: %q, %v", reply, err)
	}
	reply, err = env.svc.Handle(context.Background(), models.InboundEvent{SenderID: sender, Text: "   "})
	if err != nil || reply != "" {
		t.Fatalf("empty message handled: %q, %v", reply, err)
	}
	if env.store.Count() != 0 {
		t.Fatalf("ignored messages must not create sessions")
	}
}

func TestConcurrentSendersBookIndependently(t *testing.T) {
	env := newTestEnv()
	senders := []string{"5731111@s.whatsapp.net", "5732222@s.whatsapp.net", "5733333@s.whatsapp.net", "5734444@s.whatsapp.net"}
	steps := []string{"3", "Pasajero", "1234567", "2", "1"}

	var wg sync.WaitGroup
	for _, id := range senders {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, text := range steps {
				if _, err := env.svc.Handle(context.Background(), models.InboundEvent{SenderID: id, Text: text}); err != nil {
					t.Errorf("sender %s step %q: %v", id, text, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	rows := env.ledger.snapshot()
	if len(rows) != len(senders) {
		t.Fatalf("expected %d rows, got %d", len(senders), len(rows))
	}
	seen := map[string]bool{}
	for _, r := range rows {
		if r.Route != "quibdó → bahía solano" || r.Fare != 90000 {
			t.Fatalf("unexpected row %+v", r)
		}
		seen[r.Phone] = true
	}
	if len(seen) != len(senders) {
		t.Fatalf("rows lost or merged across senders: %v", seen)
	}
	for _, id := range senders {
		if env.state(id) != models.StateAwaitingPayment {
			t.Fatalf("sender %s in state %s", id, env.state(id))
		}
	}
}

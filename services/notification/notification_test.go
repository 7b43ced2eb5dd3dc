package notification

import (
	"context"
	"errors"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"reviewdesk/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

func TestRenderReminderEmail(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		daysBefore  int
		wantSubject string
		wantText    string
	}{
		{3, "Review due in 3 days: Deep Nets", "due in 3 days"},
		{1, "Review due in 1 day: Deep Nets", "due in 1 day,"},
		{0, "Review due today: Deep Nets", "is due today"},
		{-6, "Overdue review: Deep Nets", "6 days overdue"},
	}

	for _, tt := range tests {
		got, err := RenderReminderEmail(ReminderEmailData{
			ReviewerName:    "Dr. Osei",
			ManuscriptTitle: "Deep Nets",
			DueDate:         due,
			DaysBefore:      tt.daysBefore,
		})
		if err != nil {
			t.Fatalf("RenderReminderEmail(%d) error = %v", tt.daysBefore, err)
		}
		if got.Subject != tt.wantSubject {
			t.Errorf("RenderReminderEmail(%d).Subject = %q, want %q", tt.daysBefore, got.Subject, tt.wantSubject)
		}
		if !strings.Contains(got.Text, tt.wantText) {
			t.Errorf("RenderReminderEmail(%d).Text = %q, want it to contain %q", tt.daysBefore, got.Text, tt.wantText)
		}
		if !strings.Contains(got.HTML, "<strong>Deep Nets</strong>") {
			t.Errorf("RenderReminderEmail(%d).HTML missing title: %q", tt.daysBefore, got.HTML)
		}
	}
}

func TestRenderReminderEmailEscapesHTML(t *testing.T) {
	got, err := RenderReminderEmail(ReminderEmailData{ReviewerName: "<script>", ManuscriptTitle: "A & B", DaysBefore: 2})
	if err != nil {
		t.Fatalf("RenderReminderEmail() error = %v", err)
	}
	if strings.Contains(got.HTML, "<script>") {
		t.Errorf("HTML was not escaped: %q", got.HTML)
	}
}

func TestConversationNote(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	got := ConversationNote(ReminderEmailData{ReviewerName: "Ana", DueDate: due, DaysBefore: -3})
	if !strings.Contains(got, "3 days past the 2024-01-10 deadline") {
		t.Errorf("ConversationNote(overdue) = %q", got)
	}
	got = ConversationNote(ReminderEmailData{ReviewerName: "Ana", DueDate: due, DaysBefore: 1})
	if !strings.Contains(got, "1 day left") {
		t.Errorf("ConversationNote(upcoming) = %q", got)
	}
}

func TestSMTPSenderSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.org", Port: "587", Username: "bot@example.org", Password: "x"}, 100)
	s.sendMail = func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := s.Send(context.Background(), "rev@example.org", "Hello", "<p>hi</p>", "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotAddr != "smtp.example.org:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "bot@example.org" {
		t.Errorf("from = %q, want username fallback", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "rev@example.org" {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{"Subject: Hello", "multipart/alternative", "text/plain", "<p>hi</p>"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSMTPSenderErrors(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{}, 1)
	if err := s.Send(context.Background(), "a@b.c", "s", "h", "t"); err == nil {
		t.Error("Send() with empty config error = nil")
	}

	s = NewSMTPSender(SMTPConfig{Host: "h", Port: "25"}, 1)
	if err := s.Send(context.Background(), "", "s", "h", "t"); err == nil {
		t.Error("Send() without recipient error = nil")
	}

	s.sendMail = func(context.Context, string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 mailbox unavailable")
	}
	if err := s.Send(context.Background(), "a@b.c", "s", "h", "t"); err == nil {
		t.Error("Send() with relay failure error = nil")
	}
}

func TestSMTPSenderHonoursContext(t *testing.T) {
	// A relay that accepts the connection but never sends its greeting.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		if conn, err := ln.Accept(); err == nil {
			accepted <- conn
		}
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	s := NewSMTPSender(SMTPConfig{Host: host, Port: port}, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = s.Send(ctx, "a@b.c", "s", "h", "t")
	if err == nil {
		t.Fatal("Send() error = nil, want timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Send() returned after %v, want it bounded by the context", elapsed)
	}

	// The session must be torn down, not left running in the background.
	select {
	case conn := <-accepted:
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := conn.Read(make([]byte, 1)); err == nil {
			t.Error("client connection still open after Send() returned")
		}
	case <-time.After(2 * time.Second):
		t.Error("relay never saw a connection")
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	content, err := RenderReminderEmail(ReminderEmailData{
		ReviewerName:    "Ana",
		ManuscriptTitle: "Über Ströme\r\nBcc: leak@example.org",
		DueDate:         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		DaysBefore:      3,
	})
	if err != nil {
		t.Fatalf("RenderReminderEmail() error = %v", err)
	}

	msg, err := buildMessage("bot@example.org", "rev@example.org\r\nCc: other@example.org", content.Subject, content.HTML, content.Text)
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}
	header, _, ok := strings.Cut(string(msg), "\r\n\r\n")
	if !ok {
		t.Fatal("message has no header/body separator")
	}

	lines := strings.Split(header, "\r\n")
	var subject string
	for _, line := range lines {
		name, _, _ := strings.Cut(line, ":")
		switch strings.ToLower(name) {
		case "bcc", "cc":
			t.Errorf("injected header line %q", line)
		case "subject":
			subject = line
		}
		for _, r := range line {
			if r > 127 {
				t.Errorf("header line %q carries raw 8-bit bytes", line)
				break
			}
		}
	}
	if len(lines) != 5 {
		t.Errorf("header has %d lines, want 5: %q", len(lines), lines)
	}
	if !strings.Contains(subject, "=?utf-8?q?") {
		t.Errorf("Subject = %q, want an RFC 2047 encoded word", subject)
	}

	decoded, err := new(mime.WordDecoder).DecodeHeader(strings.TrimPrefix(subject, "Subject: "))
	if err != nil {
		t.Fatalf("DecodeHeader() error = %v", err)
	}
	if want := "Review due in 3 days: Über StrömeBcc: leak@example.org"; decoded != want {
		t.Errorf("decoded Subject = %q, want %q", decoded, want)
	}
}

func TestBuildMessageKeepsASCIISubject(t *testing.T) {
	msg, err := buildMessage("a@b.c", "d@e.f", "Review due today: Deep Nets", "<p>x</p>", "x")
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}
	if !strings.Contains(string(msg), "\r\nSubject: Review due today: Deep Nets\r\n") {
		t.Errorf("ASCII subject was re-encoded: %q", msg)
	}
}

type fakeFCM struct {
	msgs []*messaging.Message
	err  error
}

func (f *fakeFCM) Send(ctx context.Context, m *messaging.Message) (string, error) {
	f.msgs = append(f.msgs, m)
	return "id", f.err
}

func TestFCMBroadcaster(t *testing.T) {
	fake := &fakeFCM{err: errors.New("quota")}
	b := &FCMBroadcaster{client: fake, logger: zap.NewNop()}

	b.Broadcast(context.Background(), "conversation:c1", models.LiveUpdate{
		Type: "message.created",
		Data: map[string]any{"messageId": "m1", "count": 3},
	})

	if len(fake.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.msgs))
	}
	m := fake.msgs[0]
	if m.Topic != "conversation_c1" {
		t.Errorf("Topic = %q, want conversation_c1", m.Topic)
	}
	if m.Data["messageId"] != "m1" {
		t.Errorf("Data[messageId] = %q", m.Data["messageId"])
	}
	if _, ok := m.Data["count"]; ok {
		t.Error("non-string data value should be dropped")
	}
}

type recordingBroadcaster struct{ topics []string }

func (r *recordingBroadcaster) Broadcast(ctx context.Context, topic string, payload models.LiveUpdate) {
	r.topics = append(r.topics, topic)
}

func TestMultiBroadcaster(t *testing.T) {
	a, b := &recordingBroadcaster{}, &recordingBroadcaster{}
	MultiBroadcaster{a, nil, b}.Broadcast(context.Background(), "t", models.LiveUpdate{})
	if len(a.topics) != 1 || len(b.topics) != 1 {
		t.Errorf("fan-out = %v / %v, want one each", a.topics, b.topics)
	}
}

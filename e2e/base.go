package e2e

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"tcp-chat/domain"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseChatSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("CHAT_ADDR not set, no chat server to talk to")
	}
}

// Participant is one raw TCP connection to the server under test.
type Participant struct {
	s      *BaseChatSuite
	name   string
	conn   net.Conn
	reader *bufio.Reader
}

// Step prints a colorized header for a test step in logs
func (s *BaseChatSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Dial connects and waits for the username prompt.
func (s *BaseChatSuite) Dial(name string) *Participant {
	conn, err := net.Dial("tcp", s.Config.ChatAddr)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.Config.ChatAddr)
	p := &Participant{s: s, name: name, conn: conn, reader: bufio.NewReader(conn)}
	s.T().Cleanup(func() { _ = conn.Close() })

	p.Expect(domain.WelcomePrompt)
	return p
}

// Join connects and completes the handshake as name.
func (s *BaseChatSuite) Join(name string) *Participant {
	p := s.Dial(name)
	p.Send(name)
	p.ExpectEventually(domain.ConnectedAs(name))
	p.Expect(domain.QuitInstructions)
	return p
}

func (p *Participant) Send(line string) {
	_, err := fmt.Fprintf(p.conn, "%s\n", line)
	p.s.Require().NoError(err)
}

func (p *Participant) ReadLine() (string, error) {
	_ = p.conn.SetReadDeadline(time.Now().Add(time.Duration(p.s.Config.ReadTimeout) * time.Second))
	line, err := p.reader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err == nil {
		p.s.T().Logf("%s <- %s", p.name, line)
	}
	return line, err
}

func (p *Participant) Expect(expected string) {
	line, err := p.ReadLine()
	p.s.Require().NoError(err)
	p.s.Require().Equal(expected, line)
}

// ExpectEventually skips lines until expected shows up.
// Other participants may talk on a shared server.
func (p *Participant) ExpectEventually(expected string) {
	for {
		line, err := p.ReadLine()
		p.s.Require().NoError(err, "waiting for %q", expected)
		if line == expected {
			return
		}
	}
}

func (p *Participant) ExpectClosed() {
	for {
		if _, err := p.ReadLine(); err != nil {
			return
		}
	}
}

package session

import (
	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/synth"
	"github.com/haven-oss/haven/internal/transport"
)

// synthResponder adapts the synthesizer to the transport responder
// contract. Synthesis cannot fail, so the error is always nil.
type synthResponder struct {
	s *synth.Synthesizer
}

func (r *synthResponder) Respond(message string) (string, error) {
	return r.s.Respond(message).Text, nil
}

// buildChannels assembles the fallback chain in configured priority order.
// Unknown names are skipped; a misconfigured empty chain still works
// because Send falls through to direct synthesis.
func buildChannels(cfg *config.Config, link transport.PeerLink, s *synth.Synthesizer) []transport.Channel {
	channels := make([]transport.Channel, 0, len(cfg.Session.TransportPriority))
	for _, name := range cfg.Session.TransportPriority {
		switch name {
		case transport.KindEdge:
			channels = append(channels, transport.NewEdgeChannel(cfg.Edge.URL, cfg.EdgeTimeout()))
		case transport.KindPeer:
			channels = append(channels, transport.NewPeerChannel(link))
		case transport.KindLocal:
			channels = append(channels, transport.NewLocalChannel(&synthResponder{s: s}))
		}
	}
	return channels
}

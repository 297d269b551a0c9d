package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

func TestDeliveryFailureDemotesAndRebroadcastsRoster(t *testing.T) {
	req := require.New(t)
	r := newTestRelay(nil, nil)
	perezConn, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, gomez := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")

	perezConn.mu.Lock()
	perezConn.fail = true
	perezConn.mu.Unlock()

	before := gomezConn.countType("users")
	r.Bcast.Audio(&domain.AudioMessage{SenderToken: gomez, SenderPeerID: "Gomez_Rampa", Payload: "x"})

	// The stale handle is released, never retried; peers learn via roster.
	req.False(r.State.Online(perez))
	req.True(r.State.Online(gomez))
	req.Greater(gomezConn.countType("users"), before)

	perezConn.mu.Lock()
	req.True(perezConn.closed)
	perezConn.mu.Unlock()

	// Session itself survives for reconnect.
	_, ok := r.State.Session(perez)
	req.True(ok)
}

func TestRosterListsOnlineOperatorsWithGroups(t *testing.T) {
	req := require.New(t)
	r := newTestRelay(nil, nil)
	conn, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	_, gomez := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")

	req.True(r.JoinGroup(t.Context(), gomez, "rampa-norte"))
	r.Disconnect(t.Context(), perez, conn)

	roster := r.State.Roster()
	req.Len(roster, 1, "offline sessions stay out of the roster")
	req.Equal("Gomez", roster[0].Name)
	req.Equal(domain.PeerID("Gomez_Rampa"), roster[0].UserID)
	req.Equal(domain.GroupID("rampa-norte"), roster[0].GroupID)
}

func TestGroupMessageEventCarriesGroupID(t *testing.T) {
	req := require.New(t)
	r := newTestRelay(nil, nil)
	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, gomez := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")

	req.True(r.JoinGroup(t.Context(), perez, "rampa-norte"))
	req.True(r.JoinGroup(t.Context(), gomez, "rampa-norte"))

	r.Bcast.Audio(&domain.AudioMessage{
		SenderToken:  perez,
		SenderPeerID: "Perez_Maletero",
		Payload:      "x",
		GroupID:      "rampa-norte",
	})

	req.Equal(1, gomezConn.countType("group_message"))
	found := false
	for _, e := range gomezConn.events() {
		if strings.Contains(e, `"type":"group_message"`) && strings.Contains(e, `"group_id":"rampa-norte"`) {
			found = true
		}
	}
	req.True(found)
}

package testsupport

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"replaykit/internal/replay"
)

// Body packet markers as they appear in decompressed replay bodies.
var (
	markerPlayer        = []byte{0x22, 0x07, 0x94, 0x9B, 0xDC}
	markerOperatorSwap  = []byte{0x22, 0xA9, 0x26, 0x0B, 0xE4}
	markerSpawn         = []byte{0xAF, 0x98, 0x99, 0xCA}
	markerUsername      = []byte{0x22, 0x85, 0xCF, 0x36, 0x3A}
	markerProfileID     = []byte{0x8A, 0x50, 0x9B, 0xD0}
	markerTimer         = []byte{0x1F, 0x07, 0xEF, 0xC9}
	markerTimerY7       = []byte{0x1E, 0xF1, 0x11, 0xAB}
	markerMatchFeedback = []byte{0x59, 0x34, 0xE5, 0x8B, 0x04}
	markerFeedbackBody  = []byte{0x00, 0x00, 0x00, 0x22, 0xE3, 0x09, 0x00, 0x79}
	markerKill          = []byte{0x22, 0xD9, 0x13, 0x3C, 0xBA}
	markerDefuserTimer  = []byte{0x22, 0xA9, 0xC8, 0x58, 0xD9}

	headerSeparator = make([]byte, 7)
)

// HeaderPlayer is a roster entry written into the clear-text header.
type HeaderPlayer struct {
	ID        uint64
	Username  string
	TeamIndex int
	Alliance  int
}

// PlayerPacket is a roster packet in the round body. An empty Spawn marks a
// defender.
type PlayerPacket struct {
	Operator  replay.Operator
	DissectID [4]byte
	Spawn     string
	Username  string
	ProfileID string
	NumericID uint64
}

// ReplayBuilder assembles synthetic replay containers for tests. The zero
// value is not usable; start from NewReplay.
type ReplayBuilder struct {
	Version            string
	CodeVersion        int
	Timestamp          time.Time
	MatchType          replay.MatchType
	Map                replay.Map
	GameMode           replay.GameMode
	RecordingPlayerID  uint64
	RecordingProfileID string
	RoundNumber        int
	TeamNames          [2]string
	TeamScores         [2]int
	MatchID            string
	HeaderPlayers      []HeaderPlayer
	// Unchunked compresses the whole container instead of only the body.
	Unchunked bool

	frames [][]byte
	body   bytes.Buffer
}

// NewReplay returns a builder for a Y8S4 ranked round on Clubhouse.
func NewReplay() *ReplayBuilder {
	return &ReplayBuilder{
		Version:           "Y8S4",
		CodeVersion:       8123456,
		Timestamp:         time.Date(2024, time.March, 9, 18, 30, 5, 0, time.UTC),
		MatchType:         replay.Ranked,
		Map:               replay.ClubHouse,
		GameMode:          replay.Bomb,
		RecordingPlayerID: 1001,
		TeamNames:         [2]string{"YOUR TEAM", "OPPONENTS"},
		MatchID:           "0e8b3f1c-match",
	}
}

// Player appends a roster packet.
func (b *ReplayBuilder) Player(p PlayerPacket) *ReplayBuilder {
	b.body.Write(markerPlayer)
	writeUint64(&b.body, uint64(p.Operator))
	b.body.Write(p.DissectID[:])
	b.body.Write([]byte{0x00, 0x00})
	b.body.Write(markerSpawn)
	writeString(&b.body, p.Spawn)
	b.body.Write(make([]byte, 10))
	if p.Spawn == "" {
		b.body.WriteByte(0x1B)
	}
	b.body.Write([]byte{0x00, 0x00})
	b.body.Write(markerUsername)
	writeString(&b.body, p.Username)
	if b.RecordingProfileID != "" {
		b.body.Write(markerProfileID)
		writeString(&b.body, p.ProfileID)
		b.body.Write(make([]byte, 5))
		writeUint64(&b.body, p.NumericID)
	}
	b.body.Write(make([]byte, 4))
	return b
}

// OperatorSwap appends an operator change for the player with id.
func (b *ReplayBuilder) OperatorSwap(op replay.Operator, id [4]byte) *ReplayBuilder {
	b.body.Write(markerOperatorSwap)
	writeUint64(&b.body, uint64(op))
	b.body.Write(make([]byte, 5))
	b.body.Write(id[:])
	b.body.Write(make([]byte, 4))
	return b
}

// Site appends the defended site packet.
func (b *ReplayBuilder) Site(location string) *ReplayBuilder {
	b.body.Write(markerSpawn)
	writeString(&b.body, location)
	b.body.Write(make([]byte, 6))
	b.body.WriteByte(0x02)
	b.body.Write(make([]byte, 4))
	return b
}

// Timer appends a binary round timer packet.
func (b *ReplayBuilder) Timer(seconds uint32) *ReplayBuilder {
	b.body.Write(markerTimer)
	b.body.WriteByte(4)
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], seconds)
	b.body.Write(v[:])
	b.body.Write(make([]byte, 4))
	return b
}

// TextTimer appends a pre-Y8S1 textual timer packet such as "2:58".
func (b *ReplayBuilder) TextTimer(value string) *ReplayBuilder {
	b.body.Write(markerTimerY7)
	writeString(&b.body, value)
	b.body.Write(make([]byte, 4))
	return b
}

// Kill appends a kill feed entry. An empty killer records a death.
func (b *ReplayBuilder) Kill(killer, target string, headshot bool) *ReplayBuilder {
	b.feedbackPrefix()
	b.body.WriteByte(0x00)
	b.body.Write(markerKill)
	writeString(&b.body, killer)
	b.body.Write(make([]byte, 15))
	writeString(&b.body, target)
	b.body.Write(make([]byte, 56))
	if headshot {
		b.body.WriteByte(0x01)
	} else {
		b.body.WriteByte(0x00)
	}
	b.body.Write(make([]byte, 4))
	return b
}

// Message appends a system feed message such as "Bob left the game".
func (b *ReplayBuilder) Message(msg string) *ReplayBuilder {
	b.feedbackPrefix()
	b.body.WriteByte(byte(len(msg)))
	b.body.WriteString(msg)
	b.body.Write(make([]byte, 4))
	return b
}

func (b *ReplayBuilder) feedbackPrefix() {
	b.body.Write(markerMatchFeedback)
	b.body.WriteByte(0x01)
	b.body.Write(markerFeedbackBody)
}

// Defuser appends a defuser progress packet for the player with id. A timer
// starting with "0.00" completes the plant or disable.
func (b *ReplayBuilder) Defuser(timer string, id [4]byte) *ReplayBuilder {
	b.body.Write(markerDefuserTimer)
	writeString(&b.body, timer)
	b.body.Write(make([]byte, 34))
	b.body.Write(id[:])
	b.body.Write(make([]byte, 4))
	return b
}

// EndFrame closes the current body frame. Packets added afterwards go into
// a new zstd frame.
func (b *ReplayBuilder) EndFrame() *ReplayBuilder {
	b.frames = append(b.frames, bytes.Clone(b.body.Bytes()))
	b.body.Reset()
	return b
}

// FrameEnds returns the container offsets at which each zstd frame ends.
func (b *ReplayBuilder) FrameEnds(t testing.TB) []int {
	t.Helper()
	_, ends := b.render(t)
	return ends
}

// Raw appends arbitrary body bytes.
func (b *ReplayBuilder) Raw(p []byte) *ReplayBuilder {
	b.body.Write(p)
	return b
}

// Bytes renders the container. Each EndFrame boundary becomes a separate
// zstd frame.
func (b *ReplayBuilder) Bytes(t testing.TB) []byte {
	t.Helper()
	out, _ := b.render(t)
	return out
}

func (b *ReplayBuilder) render(t testing.TB) ([]byte, []int) {
	t.Helper()

	var plain bytes.Buffer
	plain.WriteString("dissect")
	plain.Write([]byte{0x01, 0x02, 0x03, 0x04})
	plain.Write(headerSeparator)
	plain.WriteByte(0x05)
	plain.Write(headerSeparator)
	b.writeHeader(&plain)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithZeroFrames(true))
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()

	segments := append(append([][]byte(nil), b.frames...), b.body.Bytes())
	var out []byte
	if b.Unchunked {
		first := append(plain.Bytes(), segments[0]...)
		out = enc.EncodeAll(first, nil)
	} else {
		out = enc.EncodeAll(segments[0], plain.Bytes())
	}
	ends := []int{len(out)}
	for _, seg := range segments[1:] {
		out = enc.EncodeAll(seg, out)
		ends = append(ends, len(out))
	}
	return out, ends
}

func (b *ReplayBuilder) writeHeader(w *bytes.Buffer) {
	prop := func(k, v string) {
		writeHeaderString(w, k)
		writeHeaderString(w, v)
	}
	itoa := strconv.Itoa
	prop("version", b.Version)
	prop("code", itoa(b.CodeVersion))
	prop("datetime", b.Timestamp.Format("2006-01-02-15-04-05"))
	prop("matchtype", itoa(int(b.MatchType)))
	prop("worldid", strconv.FormatUint(uint64(b.Map), 10))
	prop("gamemodeid", itoa(int(b.GameMode)))
	prop("recordingplayerid", strconv.FormatUint(b.RecordingPlayerID, 10))
	prop("recordingprofileid", b.RecordingProfileID)
	prop("additionaltags", "")
	prop("roundspermatch", "9")
	prop("roundspermatchovertime", "3")
	prop("roundnumber", itoa(b.RoundNumber))
	prop("overtimeroundnumber", "0")
	prop("teamname0", b.TeamNames[0])
	prop("teamname1", b.TeamNames[1])
	for _, setting := range []string{"3", "45", "180"} {
		prop("gmsetting", setting)
	}
	for _, p := range b.HeaderPlayers {
		prop("playerid", strconv.FormatUint(p.ID, 10))
		prop("playername", p.Username)
		prop("team", itoa(p.TeamIndex))
		prop("alliance", itoa(p.Alliance))
	}
	prop("playlistcategory", "1")
	prop("id", b.MatchID)
	prop("teamscore0", itoa(b.TeamScores[0]))
	prop("teamscore1", itoa(b.TeamScores[1]))
}

func writeHeaderString(w *bytes.Buffer, s string) {
	w.WriteByte(byte(len(s)))
	w.Write(headerSeparator)
	w.WriteString(s)
}

func writeString(w *bytes.Buffer, s string) {
	w.WriteByte(byte(len(s)))
	w.WriteString(s)
}

func writeUint64(w *bytes.Buffer, v uint64) {
	w.WriteByte(8)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

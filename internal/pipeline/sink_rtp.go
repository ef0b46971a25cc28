package pipeline

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/smazurov/audionode/internal/source"
)

// rtpMaxPayload keeps packets under the usual 1500 byte MTU with room for
// IP, UDP and RTP headers.
const rtpMaxPayload = 1200

const senderReportInterval = 5 * time.Second

// RTPSink streams captured audio as uncompressed L16 over UDP and sends
// periodic RTCP sender reports on the adjacent port.
type RTPSink struct {
	conn     net.Conn
	rtcpConn net.Conn

	payloadType uint8
	ssrc        uint32
	sequence    uint16
	timestamp   uint32

	packets uint32
	octets  uint32
	lastSR  time.Time

	scratch []byte
	now     func() time.Time
}

// NewRTPSink dials the destination address. The RTCP companion stream uses
// the next port up, per convention.
func NewRTPSink(addr string, payloadType uint8) (*RTPSink, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parse rtp destination: %w", err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("parse rtp destination port: %w", err)
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial rtp destination: %w", err)
	}
	rtcpConn, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(portNum+1)))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dial rtcp destination: %w", err)
	}

	return &RTPSink{
		conn:        conn,
		rtcpConn:    rtcpConn,
		payloadType: payloadType,
		ssrc:        rand.Uint32(),
		sequence:    uint16(rand.Uint32()),
		now:         time.Now,
	}, nil
}

// Name implements Sink.
func (s *RTPSink) Name() string { return "rtp" }

// WriteAudio converts the buffer to network byte order and sends it as one
// or more RTP packets. The timestamp advances in frames, matching the L16
// clock rate.
func (s *RTPSink) WriteAudio(a source.Audio) error {
	if a.Format != source.FormatS16LE {
		return fmt.Errorf("unsupported sample format %s", a.Format)
	}

	frameBytes := a.Channels * 2
	payload := s.interleaveBE(a)
	chunkBytes := rtpMaxPayload / frameBytes * frameBytes

	for off := 0; off < len(payload); off += chunkBytes {
		end := min(off+chunkBytes, len(payload))
		chunk := payload[off:end]

		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         s.packets == 0,
				PayloadType:    s.payloadType,
				SequenceNumber: s.sequence,
				Timestamp:      s.timestamp,
				SSRC:           s.ssrc,
			},
			Payload: chunk,
		}
		raw, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("marshal rtp packet: %w", err)
		}
		if _, err := s.conn.Write(raw); err != nil {
			return fmt.Errorf("send rtp packet: %w", err)
		}

		s.sequence++
		s.timestamp += uint32(len(chunk) / frameBytes)
		s.packets++
		s.octets += uint32(len(chunk))
	}

	return s.maybeSendReport()
}

// Close shuts down both transport connections.
func (s *RTPSink) Close() error {
	rtpErr := s.conn.Close()
	rtcpErr := s.rtcpConn.Close()
	if rtpErr != nil {
		return rtpErr
	}
	return rtcpErr
}

// interleaveBE converts the little-endian channel planes into a single
// interleaved big-endian payload, the L16 wire format.
func (s *RTPSink) interleaveBE(a source.Audio) []byte {
	n := a.Frames * a.Channels * 2
	if cap(s.scratch) < n {
		s.scratch = make([]byte, n)
	}
	b := s.scratch[:n]

	i := 0
	for frame := range a.Frames {
		for ch := range a.Channels {
			v := binary.LittleEndian.Uint16(a.Planes[ch][frame*2:])
			binary.BigEndian.PutUint16(b[i:], v)
			i += 2
		}
	}
	return b
}

func (s *RTPSink) maybeSendReport() error {
	now := s.now()
	if now.Sub(s.lastSR) < senderReportInterval {
		return nil
	}
	s.lastSR = now

	sr := rtcp.SenderReport{
		SSRC:        s.ssrc,
		NTPTime:     ntpTime(now),
		RTPTime:     s.timestamp,
		PacketCount: s.packets,
		OctetCount:  s.octets,
	}
	raw, err := sr.Marshal()
	if err != nil {
		return fmt.Errorf("marshal sender report: %w", err)
	}
	if _, err := s.rtcpConn.Write(raw); err != nil {
		return fmt.Errorf("send sender report: %w", err)
	}
	return nil
}

// ntpTime converts to the 64-bit NTP timestamp format used by RTCP.
func ntpTime(t time.Time) uint64 {
	secs := uint64(t.Unix()) + 2208988800
	frac := uint64(t.Nanosecond()) * (1 << 32) / 1e9
	return secs<<32 | frac
}

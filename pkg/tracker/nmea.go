package tracker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"

	"github.com/chalosafe/safezone/module/core/domain"
)

// UEREMeters is the user equivalent range error assumed for a consumer GPS
// receiver. HDOP times UERE estimates horizontal accuracy in meters.
const UEREMeters = 5.0

// NMEAProvider turns GGA and RMC sentences into samples. Sentences without a
// fix, other sentence types and lines that fail to parse are skipped.
type NMEAProvider struct {
	subjectID string
	scanner   *bufio.Scanner
	now       func() time.Time
	date      nmea.Date
}

func NewNMEAProvider(subjectID string, r io.Reader) *NMEAProvider {
	return &NMEAProvider{
		subjectID: subjectID,
		scanner:   bufio.NewScanner(r),
		now:       time.Now,
	}
}

// OpenSerial reads NMEA from a GPS receiver on port. Close the returned
// closer when done.
func OpenSerial(subjectID, port string, baud int) (*NMEAProvider, io.Closer, error) {
	s, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud})
	if err != nil {
		return nil, nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return NewNMEAProvider(subjectID, s), s, nil
}

func (p *NMEAProvider) Next(ctx context.Context) (domain.Sample, error) {
	for p.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return domain.Sample{}, err
		}

		sentence, err := nmea.Parse(p.scanner.Text())
		if err != nil {
			continue
		}

		switch s := sentence.(type) {
		case nmea.RMC:
			if s.Date.Valid {
				p.date = s.Date
			}
			if s.Validity != nmea.ValidRMC {
				continue
			}
			return p.sample(s.Latitude, s.Longitude, s.Time, 0), nil
		case nmea.GGA:
			if s.FixQuality == nmea.Invalid {
				continue
			}
			return p.sample(s.Latitude, s.Longitude, s.Time, s.HDOP), nil
		}
	}
	if err := p.scanner.Err(); err != nil {
		return domain.Sample{}, fmt.Errorf("read nmea stream: %w", err)
	}
	return domain.Sample{}, io.EOF
}

// sample stamps the fix with the last RMC date, or today's UTC date before
// any RMC has been seen.
func (p *NMEAProvider) sample(lat, lon float64, t nmea.Time, hdop float64) domain.Sample {
	var year, day int
	var month time.Month
	if p.date.Valid {
		year, month, day = 2000+p.date.YY, time.Month(p.date.MM), p.date.DD
	} else {
		year, month, day = p.now().UTC().Date()
	}

	ts := p.now().UTC()
	if t.Valid {
		ts = time.Date(year, month, day, t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
	}

	return domain.Sample{
		SubjectID: p.subjectID,
		Position:  domain.Coordinate{Lat: lat, Lon: lon},
		Timestamp: ts,
		Accuracy:  hdop * UEREMeters,
	}
}

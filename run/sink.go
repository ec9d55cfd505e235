package run

import (
	"io"
	"sync"
	"time"

	"github.com/Kaccad/Juicyscore-test/formats/dsd"
	"github.com/Kaccad/Juicyscore-test/formats/varint"
	"github.com/Kaccad/Juicyscore-test/log"
	"github.com/Kaccad/Juicyscore-test/modules"
)

// Envelope wraps a module result with its origin.
type Envelope struct {
	Queue  string         `json:"queue" cbor:"queue" msgpack:"queue"`
	Time   time.Time      `json:"time" cbor:"time" msgpack:"time"`
	Result modules.Result `json:"result" cbor:"result" msgpack:"result"`
}

// Sink writes the results of all queues to a single writer and publishes
// them to subscribers.
//
// Text formats are written one envelope per line (YAML as separate documents),
// binary formats are prefixed with their varint encoded length.
type Sink struct {
	lock    sync.Mutex
	w       io.Writer
	format  dsd.SerializationFormat
	publish func([]byte)
	now     func() time.Time
}

// NewSink returns a sink writing to w in the given format. Every envelope is
// additionally passed to publish as JSON, if publish is not nil.
func NewSink(w io.Writer, format dsd.SerializationFormat, publish func([]byte)) *Sink {
	return &Sink{
		w:       w,
		format:  format,
		publish: publish,
		now:     time.Now,
	}
}

// For returns the readiness callback for the queue with the given name.
func (s *Sink) For(queueName string) modules.ReadinessFunc {
	return func(result modules.Result) {
		s.handle(&Envelope{
			Queue:  queueName,
			Time:   s.now(),
			Result: result,
		})
	}
}

func (s *Sink) handle(envelope *Envelope) {
	data, err := dsd.DumpWithoutIdentifier(envelope, s.format)
	if err != nil {
		log.Errorf("run: failed to serialize result of queue %s: %s", envelope.Queue, err)
		return
	}

	switch {
	case s.format == dsd.YAML:
		data = append([]byte("---\n"), data...)
	case s.format.IsText():
		data = append(data, '\n')
	default:
		data = varint.PrependLength(data)
	}

	s.lock.Lock()
	_, err = s.w.Write(data)
	s.lock.Unlock()
	if err != nil {
		log.Warningf("run: failed to write result of queue %s: %s", envelope.Queue, err)
	}

	if s.publish == nil {
		return
	}
	if s.format != dsd.JSON {
		data, err = dsd.DumpWithoutIdentifier(envelope, dsd.JSON)
		if err != nil {
			log.Errorf("run: failed to serialize result of queue %s: %s", envelope.Queue, err)
			return
		}
	}
	s.publish(data)
}

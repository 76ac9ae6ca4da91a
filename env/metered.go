// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package env

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/contractstore/storage"
)

var _ Env = (*Metered)(nil)

// Metered counts the host operations issued through an Env.
type Metered struct {
	Env

	storageOps *prometheus.CounterVec
	events     prometheus.Counter
	calls      *prometheus.CounterVec
	transfers  *prometheus.CounterVec
	creates    *prometheus.CounterVec
}

// NewMetered wraps [inner] and registers its counters with [registerer].
func NewMetered(inner Env, namespace string, registerer prometheus.Registerer) (*Metered, error) {
	m := &Metered{
		Env: inner,
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_ops",
			Help:      "Number of storage operations issued to the host",
		}, []string{"op"}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events",
			Help:      "Number of events emitted",
		}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls",
			Help:      "Number of cross contract calls",
		}, []string{"result"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers",
			Help:      "Number of value transfers",
		}, []string{"result"}),
		creates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "creates",
			Help:      "Number of contracts instantiated",
		}, []string{"result"}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.storageOps),
		registerer.Register(m.events),
		registerer.Register(m.calls),
		registerer.Register(m.transfers),
		registerer.Register(m.creates),
	)
	return m, errs.Err
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metered) GetStorage(key storage.Key) ([]byte, error) {
	m.storageOps.WithLabelValues("read").Inc()
	return m.Env.GetStorage(key)
}

func (m *Metered) SetStorage(key storage.Key, value []byte) error {
	m.storageOps.WithLabelValues("write").Inc()
	return m.Env.SetStorage(key, value)
}

func (m *Metered) ClearStorage(key storage.Key) error {
	m.storageOps.WithLabelValues("clear").Inc()
	return m.Env.ClearStorage(key)
}

func (m *Metered) EmitEvent(event Event) error {
	m.events.Inc()
	return m.Env.EmitEvent(event)
}

func (m *Metered) InvokeContract(params CallParams) ([]byte, error) {
	out, err := m.Env.InvokeContract(params)
	m.calls.WithLabelValues(result(err)).Inc()
	return out, err
}

func (m *Metered) Transfer(to AccountID, value Balance) error {
	err := m.Env.Transfer(to, value)
	m.transfers.WithLabelValues(result(err)).Inc()
	return err
}

func (m *Metered) CreateContract(params CreateParams) (AccountID, error) {
	account, err := m.Env.CreateContract(params)
	m.creates.WithLabelValues(result(err)).Inc()
	return account, err
}

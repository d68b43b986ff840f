package eventbus

import (
	"context"

	"github.com/annel0/chunk-mesher/internal/logging"
)

// StartLoggingListener подписывается на события перестроения мешей и пишет их в DEBUG-лог.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	sub, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventMeshRefreshed}}, func(ctx context.Context, ev *Envelope) {
		m, err := DecodeMeshRefreshed(ev)
		if err != nil {
			logging.Warn("[EventBus] %s: %v", ev.ID, err)
			return
		}
		logging.Debug("[EventBus] %s chunk(%d,%d,%d) quads=%d v%d tick=%d",
			ev.ID, m.X, m.Y, m.Z, m.Quads, m.Version, m.TickID)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("🪵 LoggingListener: подписка на MeshRefreshed активирована")
	return sub, nil
}

// internal/notify/card/presenter.go
package card

import (
	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/models"
)

// Presenter satisfies the display controller's presenter contract by
// rendering the card for each notification that becomes visible. An embedding
// UI would paint the card; this reference surface logs it.
type Presenter struct {
	renderer *Renderer
	logger   logger.Logger
}

func NewPresenter(renderer *Renderer, log logger.Logger) Presenter {
	return Presenter{renderer: renderer, logger: log}
}

func (p Presenter) Show(n models.Notification) {
	c := p.renderer.Render(n)
	p.logger.Info("notification visible", map[string]interface{}{
		"id":         n.ID,
		"title":      c.Title,
		"body":       c.Body,
		"hasActions": c.HasActions,
	})
}

func (p Presenter) Hide(n models.Notification) {
	p.logger.Info("notification dismissing", map[string]interface{}{"id": n.ID})
}

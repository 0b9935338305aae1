package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tadoba-control-go/internal/models"
)

func TestBoxLabelAndColor(t *testing.T) {
	assert.Equal(t, "person 95.00%", BoxLabel("person", 0.95))
	assert.Equal(t, personColor, BoxColor("person"))
	assert.Equal(t, otherColor, BoxColor("tiger"))
}

func TestAnnotateRejectsGarbage(t *testing.T) {
	_, err := AnnotateJPEG(nil, nil, 90)
	assert.Error(t, err)
	_, err = AnnotateJPEG([]byte("not an image"), nil, 90)
	assert.Error(t, err)
}

func TestBreachZone(t *testing.T) {
	buffer := &models.Zone{Name: "Moharli Buffer", Category: models.ZoneCategoryBuffer}
	core := &models.Zone{Name: "Tadoba Core North", Category: models.ZoneCategoryCore}

	_, ok := BreachZone([]models.Detection{{Class: "tiger"}, {Class: "deer", Zone: buffer}})
	assert.False(t, ok)

	name, ok := BreachZone([]models.Detection{{Class: "deer", Zone: buffer}, {Class: "tiger", Zone: core}})
	assert.True(t, ok)
	assert.Equal(t, "Tadoba Core North", name)
}

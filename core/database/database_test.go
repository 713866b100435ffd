package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         "mysql",
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "media",
			TimeoutSeconds: 2,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("Disabled", func(t *testing.T) {
		db, err := Connect(Config{})
		assert.ErrorIs(t, err, ErrDisabled)
		assert.Nil(t, db)
	})

	t.Run("UnsupportedDriver", func(t *testing.T) {
		_, err := Connect(Config{Driver: "oracle"})
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(Config{Driver: "mysql", User: "u", Password: "p@ss", Host: "db", Port: 3306, Name: "media"}, 5)
	assert.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = dialectorFor(Config{Driver: "sqlite", Name: "media.db"}, 5)
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}

package core

import "github.com/sirupsen/logrus"

type Option func(*Directory)

// WithWindowSize sets how many slots one scan may read. It bounds both RAM
// use and the longest chain an insert can extend.
func WithWindowSize(slots int) Option {
	return func(d *Directory) {
		d.windowSize = slots
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(d *Directory) {
		d.log = log
	}
}

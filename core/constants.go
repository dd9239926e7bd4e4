package core

import (
	"github.com/0xRadioAc7iv/go-flashdir/internal/medium"
	"github.com/0xRadioAc7iv/go-flashdir/internal/window"
)

const (
	DefaultCapacity   = medium.OneMegabyte // external flash part
	DefaultWindowSize = window.DefaultSlots
	MinimumWindowSize = 1

	DefaultImagePath = "./flash.img"

	DefaultSweepIntervalSeconds = 60
	MinimumSweepIntervalSeconds = 5
)

package radio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// NewCC1101 opens the SPI port and GDO0 pin named in cfg and returns a
// driver bound to them. Call Start before using the radio.
func NewCC1101(cfg Config) (*CC1101, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", cfg.Port, err)
	}

	conn, err := port.Connect(5*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}

	gdo0 := gpioreg.ByName(cfg.GDO0Pin)
	if gdo0 == nil {
		port.Close()
		return nil, fmt.Errorf("open GDO0 pin %q", cfg.GDO0Pin)
	}

	d := newCC1101(conn, gdo0, cfg)
	d.port = port
	return d, nil
}

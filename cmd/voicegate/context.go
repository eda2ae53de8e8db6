package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/user/voicegate/internal/audio"
	"github.com/user/voicegate/internal/config"
	"github.com/user/voicegate/internal/dsp"
	"github.com/user/voicegate/internal/enroll"
	"github.com/user/voicegate/internal/gmm"
	"github.com/user/voicegate/internal/kv"
	"github.com/user/voicegate/internal/profile"
	"github.com/user/voicegate/internal/verify"
)

// commandContext lazily assembles the shared pipeline pieces from the
// environment configuration. Commands call the accessor they need; close()
// releases whatever was opened.
type commandContext struct {
	cfg       *config.Config
	profiles  *profile.Store
	extractor *dsp.Extractor
	vad       audio.VAD
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel)
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureStore() (*profile.Store, error) {
	if c.profiles != nil {
		return c.profiles, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	var backend kv.Store
	if cfg.StoreInMemory {
		backend = kv.NewMemory()
	} else {
		backend, err = kv.NewBadger(kv.BadgerOptions{Dir: cfg.StoreDir})
		if err != nil {
			return nil, fmt.Errorf("failed to open profile store: %w", err)
		}
	}

	c.profiles = profile.NewStore(backend)
	return c.profiles, nil
}

func (c *commandContext) ensureExtractor() (*dsp.Extractor, error) {
	if c.extractor != nil {
		return c.extractor, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	dspCfg := dsp.DefaultConfig()
	dspCfg.SampleRate = cfg.SampleRate
	dspCfg.FrameLength = cfg.SampleRate * 25 / 1000
	dspCfg.FrameShift = cfg.SampleRate * 10 / 1000

	extractor, err := dsp.NewExtractor(dspCfg)
	if err != nil {
		return nil, err
	}
	c.extractor = extractor
	return extractor, nil
}

func (c *commandContext) ensureVAD() (audio.VAD, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.UseVAD {
		return nil, nil
	}
	if c.vad != nil {
		return c.vad, nil
	}

	vad, err := audio.NewWebRTCVAD()
	if err != nil {
		log.Warn().Err(err).Msg("WebRTC VAD unavailable, using RMS gate")
		c.vad = &audio.RMSVAD{}
		return c.vad, nil
	}
	c.vad = vad
	return vad, nil
}

func (c *commandContext) newEnroller() (*enroll.Enroller, error) {
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	extractor, err := c.ensureExtractor()
	if err != nil {
		return nil, err
	}
	vad, err := c.ensureVAD()
	if err != nil {
		return nil, err
	}

	return enroll.NewEnroller(store, extractor, vad, enroll.Config{
		MinSamples: c.cfg.EnrollSamples,
		Train: gmm.TrainConfig{
			Components: c.cfg.Components,
			MaxIter:    c.cfg.MaxIter,
			Seed:       c.cfg.Seed,
		},
	}), nil
}

func (c *commandContext) newVerifier(threshold float64) (*verify.Verifier, error) {
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	extractor, err := c.ensureExtractor()
	if err != nil {
		return nil, err
	}
	vad, err := c.ensureVAD()
	if err != nil {
		return nil, err
	}

	return verify.NewVerifier(store, extractor, vad, threshold), nil
}

func (c *commandContext) close() {
	if c.vad != nil {
		if err := c.vad.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close VAD")
		}
	}
	if c.profiles != nil {
		if err := c.profiles.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close profile store")
		}
	}
}

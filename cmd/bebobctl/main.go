// bebobctl is a command line front-end for the control surface of BeBoB
// FireWire audio interfaces: clock configuration, mixer levels, routing
// selectors and hardware meters.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dreamcat4/bebob"
)

var (
	cfgFile    string
	deviceFlag string
	modelFlag  string

	cfg ctlConfig
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "bebobctl",
	Short:         "Control BeBoB FireWire audio interfaces",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		required := path != ""
		if path == "" {
			path = defaultConfigPath()
		}

		var err error
		cfg, err = loadConfig(path, required)
		if err != nil {
			return err
		}

		if deviceFlag != "" {
			cfg.Device = deviceFlag
		}
		if modelFlag != "" {
			cfg.Model = modelFlag
		}

		log = initLogger(cfg.LogLevel)

		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List FireWire nodes and their unit directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := bebob.EnumerateDevices()
		if err != nil {
			return err
		}

		for _, device := range devices {
			fmt.Print(device)
			if device.IsAvcUnit() {
				fmt.Println("  AV/C unit, usable with bebobctl")
			}
		}

		return nil
	},
}

var clockCmd = &cobra.Command{
	Use:   "clock [freq|src [index]]",
	Short: "Show or change the media clock frequency and sampling clock source",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSessionFn(cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 2 {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}

			switch args[0] {
			case "freq":
				return s.model.MediaClock.WriteFreq(s.avc, idx, s.model.WriteFreqTimeoutMs)
			case "src":
				return s.model.SamplingClock.WriteSource(s.avc, idx, cfg.TimeoutMs)
			default:
				return fmt.Errorf("unknown clock parameter %q", args[0])
			}
		}

		freqIdx, err := s.model.MediaClock.ReadFreq(s.avc, cfg.TimeoutMs)
		if err != nil {
			return err
		}
		fmt.Printf("media clock: %d Hz (index %d of %v)\n",
			s.model.MediaClock.FreqList[freqIdx], freqIdx, s.model.MediaClock.FreqList)

		srcIdx, err := s.model.SamplingClock.ReadSource(s.avc, cfg.TimeoutMs)
		if err != nil {
			return err
		}
		fmt.Printf("sampling clock source: %s (index %d of %v)\n",
			s.model.ClockSrcLabels[srcIdx], srcIdx, s.model.ClockSrcLabels)

		return nil
	},
}

// findFeatureGroup resolves a feature group by name.
func findFeatureGroup(model *bebob.Model, name string) (*bebob.FeatureGroup, error) {
	for i := range model.Features {
		if model.Features[i].Name == name {
			return &model.Features[i], nil
		}
	}

	var names []string
	for _, group := range model.Features {
		names = append(names, group.Name)
	}

	return nil, fmt.Errorf("unknown feature group %q (known: %v)", name, names)
}

var levelCmd = &cobra.Command{
	Use:   "level [group [index [value]]]",
	Short: "Show or change mixer levels",
	Args:  cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSessionFn(cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 0 {
			for _, group := range s.model.Features {
				fmt.Printf("%s (%d ports)\n", group.Name, len(group.PortLabels))
			}

			return nil
		}

		group, err := findFeatureGroup(s.model, args[0])
		if err != nil {
			return err
		}

		if len(args) == 3 {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			value, err := strconv.ParseInt(args[2], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid level %q", args[2])
			}

			return group.Controls.WriteLevel(s.avc, idx, int16(value), cfg.TimeoutMs)
		}

		for i, label := range group.PortLabels {
			vol, err := group.Controls.ReadLevel(s.avc, i, cfg.TimeoutMs)
			if err != nil {
				return err
			}
			fmt.Printf("%2d %-20s %6d\n", i, label, vol)
		}

		return nil
	},
}

var muteCmd = &cobra.Command{
	Use:   "mute <group> <index> [on|off]",
	Short: "Show or change mute state",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSessionFn(cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		group, err := findFeatureGroup(s.model, args[0])
		if err != nil {
			return err
		}

		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}

		if len(args) == 3 {
			var mute bool
			switch args[2] {
			case "on":
				mute = true
			case "off":
				mute = false
			default:
				return fmt.Errorf("invalid mute state %q", args[2])
			}

			return group.Controls.WriteMute(s.avc, idx, mute, cfg.TimeoutMs)
		}

		mute, err := group.Controls.ReadMute(s.avc, idx, cfg.TimeoutMs)
		if err != nil {
			return err
		}

		if mute {
			fmt.Println("on")
		} else {
			fmt.Println("off")
		}

		return nil
	},
}

var selectorCmd = &cobra.Command{
	Use:   "selector [group [index [item]]]",
	Short: "Show or change routing selectors",
	Args:  cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSessionFn(cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 0 {
			for _, group := range s.model.Selectors {
				fmt.Printf("%s: %v -> %v\n", group.Name, group.SelectorLabels, group.ItemLabels)
			}

			return nil
		}

		var group *bebob.SelectorGroup
		for i := range s.model.Selectors {
			if s.model.Selectors[i].Name == args[0] {
				group = &s.model.Selectors[i]

				break
			}
		}
		if group == nil {
			return fmt.Errorf("unknown selector group %q", args[0])
		}

		if len(args) == 3 {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			item, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid item %q", args[2])
			}

			return group.Controls.WriteSelector(s.avc, idx, item, cfg.TimeoutMs)
		}

		for i, label := range group.SelectorLabels {
			item, err := group.Controls.ReadSelector(s.avc, i, cfg.TimeoutMs)
			if err != nil {
				return err
			}
			fmt.Printf("%2d %-20s %s\n", i, label, group.ItemLabels[item])
		}

		return nil
	},
}

var meterCmd = &cobra.Command{
	Use:   "meter",
	Short: "Read the hardware meter frame once",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSessionFn(cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		if s.model.Meter == nil {
			return fmt.Errorf("model %s has no hardware meter", s.model.Name)
		}

		meter, err := bebob.ReadMaudioMeter(s.node, *s.model.Meter, cfg.TimeoutMs)
		if err != nil {
			return err
		}

		printLevels := func(name string, levels []int32) {
			for i, level := range levels {
				fmt.Printf("%s-%d: %d\n", name, i+1, level)
			}
		}

		printLevels("phys-input", meter.PhysInputs)
		printLevels("stream-input", meter.StreamInputs)
		printLevels("phys-output", meter.PhysOutputs)

		if s.model.Meter.HasSwitch {
			fmt.Printf("switch: %v rotary: %d\n", meter.Switch, meter.Rotary)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/bebobctl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "firewire character device, e.g. /dev/fw1")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "device model name")

	rootCmd.AddCommand(infoCmd, clockCmd, levelCmd, muteCmd, selectorCmd, meterCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

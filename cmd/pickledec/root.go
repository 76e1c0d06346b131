package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dennis-doyensec/r2pickledec/decompiler"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pickledec [file]",
		Short: "Decompile a Python pickle stream into pseudocode or JSON",
		Long: `pickledec reads a pickle opcode stream and renders the symbolic object
graph its VM reconstructs as Python-like pseudocode (the default) or JSON.
It never unpickles - class constructors, reduce callables and
self-referential containers are rendered as-is instead of executed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRoot,
	}

	flags := cmd.Flags()
	flags.Int64P("offset", "n", 0, "byte offset the pickle stream starts at")
	flags.BoolP("json", "j", false, "render JSON instead of pseudocode")
	flags.BoolP("verbose", "v", false, "enable debug opcode tracing on stderr")
	flags.Bool("no-color", false, "disable colorized error/log output")
	flags.Bool("keep-going", false, "don't stop at the first STOP opcode")
	flags.String("config", "", "path to a pickledec.toml config file")

	viper.BindPFlag("offset", flags.Lookup("offset"))
	viper.BindPFlag("json", flags.Lookup("json"))
	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("no-color", flags.Lookup("no-color"))
	viper.BindPFlag("keep-going", flags.Lookup("keep-going"))
	viper.BindPFlag("config", flags.Lookup("config"))
	viper.SetEnvPrefix("pickledec")
	viper.AutomaticEnv()

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := loadConfigFile(viper.GetString("config")); err != nil {
		return fmt.Errorf("pickledec: config: %w", err)
	}

	if viper.GetBool("no-color") || !isatty.IsTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}

	src, err := openSource(args)
	if err != nil {
		return err
	}
	defer src.Close()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}).
		With().Timestamp().Logger()
	if !viper.GetBool("verbose") {
		log = log.Level(zerolog.InfoLevel)
	}

	opts := decompiler.Options{
		JSON:        viper.GetBool("json"),
		Verbose:     viper.GetBool("verbose"),
		BreakOnStop: !viper.GetBool("keep-going"),
		Log:         log,
	}

	res, err := decompiler.Run(context.Background(), src, viper.GetInt64("offset"), opts)
	if err != nil {
		return fmt.Errorf("pickledec: %w", err)
	}

	fmt.Println(res.Output)
	if res.Truncated {
		printError(fmt.Sprintf("pickledec: output is truncated (protocol %d)", res.Protocol))
	}
	return nil
}

// openSource returns the file named by args[0], or stdin read fully into
// a seekable buffer when no file is given - decompiler.Run needs
// io.ReaderAt, which os.Stdin itself does not implement.
func openSource(args []string) (readerAtCloser, error) {
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("pickledec: %w", err)
		}
		return f, nil
	}
	data, err := readAllStdin()
	if err != nil {
		return nil, fmt.Errorf("pickledec: reading stdin: %w", err)
	}
	return bytesReaderAt{data}, nil
}

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/filesystem"
	"github.com/yhkuo41/sectorfs/pkg/types"
)

func main() {
	app := cli.App{
		Name:        appName,
		Description: "a simulated single-volume block filesystem",
		Commands: []*cli.Command{{
			Name:        "format",
			Description: "initialize a fresh volume",
			Action: func(ctx *cli.Context) error {
				return format()
			},
		}, {
			Name:        "create",
			ArgsUsage:   "PATH SIZE",
			Description: "create a fixed-size file",
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				if ctx.NArg() != 2 {
					return fmt.Errorf("wanted PATH and SIZE arguments")
				}
				size, err := strconv.Atoi(ctx.Args().Get(1))
				if err != nil {
					return fmt.Errorf("parsing SIZE: %w", err)
				}
				return fs.Create(ctx.Args().Get(0), types.Byte(size))
			}),
		}, {
			Name:        "mkdir",
			ArgsUsage:   "PATH",
			Description: "create a directory",
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				return fs.Mkdir(ctx.Args().Get(0))
			}),
		}, {
			Name:        "remove",
			Aliases:     []string{"rm"},
			ArgsUsage:   "PATH",
			Description: "remove a file, or empty a directory with -r",
			Flags: []cli.Flag{&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
			}},
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				return fs.Remove(ctx.Args().Get(0), ctx.Bool("recursive"))
			}),
		}, {
			Name:        "list",
			Aliases:     []string{"ls"},
			ArgsUsage:   "PATH",
			Description: "list a directory",
			Flags: []cli.Flag{&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
			}},
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				name := ctx.Args().Get(0)
				if name == "" {
					name = "/"
				}
				return fs.List(os.Stdout, name, ctx.Bool("recursive"))
			}),
		}, {
			Name:        "print",
			Description: "dump the volume's metadata",
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				return fs.Print(os.Stdout)
			}),
		}, {
			Name:        "header",
			ArgsUsage:   "PATH",
			Description: "dump a file's header tree",
			Flags: []cli.Flag{&cli.BoolFlag{
				Name:    "contents",
				Aliases: []string{"c"},
			}},
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				return fs.PrintHeader(
					os.Stdout,
					ctx.Args().Get(0),
					ctx.Bool("contents"),
				)
			}),
		}, {
			Name:        "cat",
			ArgsUsage:   "PATH",
			Description: "write a file's contents to stdout",
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				return cat(fs, ctx.Args().Get(0))
			}),
		}, {
			Name:        "copyin",
			ArgsUsage:   "HOSTPATH PATH",
			Description: "copy a host file into the volume",
			Action: withFS(func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				if ctx.NArg() != 2 {
					return fmt.Errorf("wanted HOSTPATH and PATH arguments")
				}
				return copyIn(fs, ctx.Args().Get(0), ctx.Args().Get(1))
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func format() error {
	c, err := LoadConfig()
	if err != nil {
		return err
	}
	configureLogging(c)

	var dev device.Device
	if c.S3Bucket != "" {
		prefix := c.VolumePrefix()
		dev = device.NewS3Disk(
			s3.New(session.Must(session.NewSession())),
			c.S3Bucket,
			prefix,
			types.Sector(c.NumSectors),
		)
		log.WithField("bucket", c.S3Bucket).
			WithField("prefix", prefix).
			Info("formatting s3 volume")
	} else {
		path := c.ImagePath()
		disk, err := device.CreateImage(path, types.Sector(c.NumSectors))
		if err != nil {
			return err
		}
		defer disk.Close()
		dev = disk
		log.WithField("image", path).Info("formatting image")
	}

	_, err = filesystem.New(dev, true)
	return err
}

func withFS(
	action func(*filesystem.FileSystem, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := LoadConfig()
		if err != nil {
			return err
		}
		configureLogging(c)

		var dev device.Device
		if c.S3Bucket != "" {
			dev = device.NewS3Disk(
				s3.New(session.Must(session.NewSession())),
				c.S3Bucket,
				c.VolumePrefix(),
				types.Sector(c.NumSectors),
			)
		} else {
			disk, err := device.OpenImage(c.ImagePath())
			if err != nil {
				return err
			}
			defer disk.Close()
			dev = disk
		}

		fs, err := filesystem.New(dev, false)
		if err != nil {
			return err
		}
		return action(fs, ctx)
	}
}

func configureLogging(c *Config) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func cat(fs *filesystem.FileSystem, name string) error {
	f, err := fs.Open(name)
	if err != nil {
		return err
	}
	buf := make([]byte, types.SectorSize)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := os.Stdout.Write(buf[:n]); err != nil {
			return err
		}
	}
}

func copyIn(fs *filesystem.FileSystem, hostPath, name string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return fmt.Errorf("reading host file `%s`: %w", hostPath, err)
	}
	if err := fs.Create(name, types.Byte(len(data))); err != nil {
		return err
	}
	f, err := fs.Open(name)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return nil
}

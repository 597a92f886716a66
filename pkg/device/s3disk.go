package device

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"

	. "github.com/yhkuo41/sectorfs/pkg/types"
)

var _ Device = (*S3Disk)(nil)

// S3Disk stores a volume in an S3 bucket, one object per sector under a key
// prefix. Sectors that have never been written read back as zeroes, so a
// fresh prefix behaves like a blank disk. It is by far the slowest backend;
// it exists so a simulated volume can outlive the host.
type S3Disk struct {
	Client     *s3.S3
	Bucket     string
	Prefix     string
	numSectors Sector
}

func NewS3Disk(client *s3.S3, bucket, prefix string, numSectors Sector) *S3Disk {
	return &S3Disk{
		Client:     client,
		Bucket:     bucket,
		Prefix:     prefix,
		numSectors: numSectors,
	}
}

func (disk *S3Disk) ReadSector(sector Sector, b []byte) error {
	if err := checkSector(disk, sector, b); err != nil {
		return fmt.Errorf("reading sector: %w", err)
	}
	key := disk.key(sector)
	rsp, err := disk.Client.GetObject(&s3.GetObjectInput{
		Bucket: &disk.Bucket,
		Key:    &key,
	})
	if err != nil {
		if err, ok := err.(awserr.Error); ok {
			if err.Code() == s3.ErrCodeNoSuchKey {
				for i := range b {
					b[i] = 0
				}
				return nil
			}
		}
		return fmt.Errorf(
			"reading sector `%d` from s3://%s/%s: %w",
			sector,
			disk.Bucket,
			key,
			err,
		)
	}
	defer rsp.Body.Close()
	if _, err := io.ReadFull(rsp.Body, b); err != nil {
		return fmt.Errorf(
			"reading sector `%d` from s3://%s/%s: %w",
			sector,
			disk.Bucket,
			key,
			err,
		)
	}
	return nil
}

func (disk *S3Disk) WriteSector(sector Sector, b []byte) error {
	if err := checkSector(disk, sector, b); err != nil {
		return fmt.Errorf("writing sector: %w", err)
	}
	key := disk.key(sector)
	if _, err := disk.Client.PutObject(&s3.PutObjectInput{
		Bucket: &disk.Bucket,
		Key:    &key,
		Body:   bytes.NewReader(b),
	}); err != nil {
		return fmt.Errorf(
			"writing sector `%d` to s3://%s/%s: %w",
			sector,
			disk.Bucket,
			key,
			err,
		)
	}
	return nil
}

func (disk *S3Disk) NumSectors() Sector { return disk.numSectors }

func (disk *S3Disk) key(sector Sector) string {
	return fmt.Sprintf("%s/%08d", disk.Prefix, sector)
}

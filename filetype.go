package sheetmagic

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// FileType is the base format of a file, without compression.
type FileType int

const (
	// XLSX represents Excel XLSX file type.
	XLSX FileType = iota
	// CSV represents CSV file type.
	CSV
	// TSV represents TSV file type.
	TSV
	// LTSV represents LTSV (Labeled Tab-Separated Values) file type.
	LTSV
	// Parquet represents Apache Parquet file type.
	Parquet
	// Unsupported represents unsupported file type.
	Unsupported
)

// String returns a human-readable string representation of the FileType.
func (ft FileType) String() string {
	switch ft {
	case XLSX:
		return "XLSX"
	case CSV:
		return "CSV"
	case TSV:
		return "TSV"
	case LTSV:
		return "LTSV"
	case Parquet:
		return "Parquet"
	default:
		return "Unsupported"
	}
}

// Compression is the compression wrapped around a file.
type Compression int

const (
	// NoCompression means the data is stored as is.
	NoCompression Compression = iota
	// Gzip represents gzip compression.
	Gzip
	// Bzip2 represents bzip2 compression. It can be read but not written.
	Bzip2
	// XZ represents xz compression.
	XZ
	// Zstd represents zstd compression.
	Zstd
	// LZ4 represents lz4 frame compression.
	LZ4
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case XZ:
		return "xz"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

// Format is a file type together with its compression.
type Format struct {
	Type        FileType
	Compression Compression
}

// IsCompressed returns true if the format is compressed.
func (f Format) IsCompressed() bool {
	return f.Compression != NoCompression
}

// String returns e.g. "CSV" or "XLSX (zstd)".
func (f Format) String() string {
	if !f.IsCompressed() {
		return f.Type.String()
	}
	return fmt.Sprintf("%s (%s)", f.Type, f.Compression)
}

// File extensions
const (
	ExtCSV     = ".csv"
	ExtTSV     = ".tsv"
	ExtLTSV    = ".ltsv"
	ExtParquet = ".parquet"
	ExtXLSX    = ".xlsx"
	ExtGZ      = ".gz"
	ExtBZ2     = ".bz2"
	ExtXZ      = ".xz"
	ExtZSTD    = ".zst"
	ExtLZ4     = ".lz4"
)

// DetectFormat detects the format from path extension, including compression.
//
//	DetectFormat("sales.xlsx.zst") // Format{Type: XLSX, Compression: Zstd}
func DetectFormat(path string) Format {
	basePath := path
	compression := NoCompression

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ExtGZ):
		basePath = path[:len(path)-len(ExtGZ)]
		compression = Gzip
	case strings.HasSuffix(lower, ExtBZ2):
		basePath = path[:len(path)-len(ExtBZ2)]
		compression = Bzip2
	case strings.HasSuffix(lower, ExtXZ):
		basePath = path[:len(path)-len(ExtXZ)]
		compression = XZ
	case strings.HasSuffix(lower, ExtZSTD):
		basePath = path[:len(path)-len(ExtZSTD)]
		compression = Zstd
	case strings.HasSuffix(lower, ExtLZ4):
		basePath = path[:len(path)-len(ExtLZ4)]
		compression = LZ4
	}

	ft := Unsupported
	switch strings.ToLower(filepath.Ext(basePath)) {
	case ExtXLSX:
		ft = XLSX
	case ExtCSV:
		ft = CSV
	case ExtTSV:
		ft = TSV
	case ExtLTSV:
		ft = LTSV
	case ExtParquet:
		ft = Parquet
	}
	return Format{Type: ft, Compression: compression}
}

// createDecompressedReader wraps the reader with appropriate decompression.
func createDecompressedReader(reader io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case Gzip:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, func() error { return gzReader.Close() }, nil

	case Bzip2:
		return bzip2.NewReader(reader), nil, nil

	case XZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, nil, nil

	case Zstd:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error { decoder.Close(); return nil }, nil

	case LZ4:
		return lz4.NewReader(reader), nil, nil

	default:
		return reader, nil, nil
	}
}

// createCompressedWriter wraps the writer with appropriate compression. The
// returned close function flushes the compressor and must be called after
// the last write.
func createCompressedWriter(writer io.Writer, c Compression) (io.Writer, func() error, error) {
	switch c {
	case Gzip:
		gzWriter := gzip.NewWriter(writer)
		return gzWriter, gzWriter.Close, nil

	case Bzip2:
		return nil, nil, errors.New("bzip2 compression is not supported for writing")

	case XZ:
		xzWriter, err := xz.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzWriter, xzWriter.Close, nil

	case Zstd:
		encoder, err := zstd.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return encoder, encoder.Close, nil

	case LZ4:
		lz4Writer := lz4.NewWriter(writer)
		return lz4Writer, lz4Writer.Close, nil

	default:
		return writer, nil, nil
	}
}

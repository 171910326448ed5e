// naneye-install - copy the vendor DLLs from a NanEye C# SDK installation
// into the lib directory the capture binaries load from.
//
// The NanEye hardware only works on Windows, but the installer runs
// anywhere (useful for preparing a deployment directory).
//
//	naneye-install -from "C:\ams\NanEye_EvalSW\lib\x64"
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	sdkDownloadLink = "https://ams-osram.com/o/download-server/document-download/download/29941803"
	sdkProductPage  = "https://ams-osram.com/products/sensor-solutions/cmos-image-sensors/ams-naneyem-miniature-camera-modules"

	defaultTarget = "lib/naneye"
)

func main() {
	from := flag.String("from", "", "SDK lib directory containing the DLLs (e.g. .../lib/x64)")
	to := flag.String("to", defaultTarget, "target directory inside the project")
	flag.Parse()

	if *from == "" {
		fmt.Println("NanEye DLL installer")
		fmt.Println()
		fmt.Println("Download and install the NanEye C# SDK first:")
		fmt.Printf("  direct:  %s\n", sdkDownloadLink)
		fmt.Printf("  product: %s\n", sdkProductPage)
		fmt.Println()
		fmt.Println("Then point -from at the SDK's lib/x64, lib/x86 or lib/win32")
		fmt.Println("directory, matching your system architecture:")
		fmt.Println()
		fmt.Println(`  naneye-install -from "C:\ams\NanEye_EvalSW\lib\x64"`)
		os.Exit(2)
	}

	copied, errs := installDLLs(*from, *to)
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "error: %v\n", e)
	}

	switch {
	case copied > 0 && len(errs) == 0:
		fmt.Printf("Copied %d DLLs to %s. Installation finished.\n", copied, *to)
	case copied > 0:
		fmt.Printf("Copied %d DLLs to %s, but %d errors occurred.\n", copied, *to, len(errs))
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "No DLLs found in %s - did you select the right SDK folder?\n", *from)
		os.Exit(1)
	}
}

// installDLLs copies every *.dll from src into dst, creating dst if needed.
func installDLLs(src, dst string) (copied int, errs []error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, []error{fmt.Errorf("read SDK directory: %w", err)}
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, []error{fmt.Errorf("create target directory: %w", err)}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".dll") {
			continue
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			errs = append(errs, fmt.Errorf("copy %s: %w", entry.Name(), err))
			continue
		}
		fmt.Printf("  copied %s\n", entry.Name())
		copied++
	}
	return copied, errs
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

package bebob

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 1394TA specifier with the AV/C general protocol version, the unit directory
// signature of every BeBoB device.
const (
	UNIT_SPECIFIER_1394TA = 0x00a02d
	UNIT_VERSION_AVC      = 0x010001
)

// FwUnitInfo represents one unit directory in a node's config ROM.
type FwUnitInfo struct {
	SpecifierID uint32
	Version     uint32
}

// FwDeviceInfo represents an enumerated FireWire node with the identity
// attributes the kernel exposes through sysfs.
type FwDeviceInfo struct {
	Name   string // device name, e.g. "fw1"
	Path   string // character device path, e.g. "/dev/fw1"
	GUID   uint64
	Vendor string
	Model  string
	Units  []FwUnitInfo
}

// IsAvcUnit reports whether the node carries an AV/C unit directory, the
// precondition for FCP transactions.
func (d FwDeviceInfo) IsAvcUnit() bool {
	for _, unit := range d.Units {
		if unit.SpecifierID == UNIT_SPECIFIER_1394TA && unit.Version == UNIT_VERSION_AVC {
			return true
		}
	}

	return false
}

// String returns a human-readable representation of the device.
func (d FwDeviceInfo) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s %s (GUID %016x)\n", d.Name, d.Vendor, d.Model, d.GUID))
	for _, unit := range d.Units {
		sb.WriteString(fmt.Sprintf("  Unit: specifier 0x%06x version 0x%06x\n", unit.SpecifierID, unit.Version))
	}

	return sb.String()
}

// readSysfsHex reads a sysfs attribute holding a hexadecimal value such as
// "0x0007f5" and returns it as an integer.
func readSysfsHex(path string) (uint64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	return strconv.ParseUint(strings.TrimSpace(string(content)), 0, 64)
}

// readSysfsString reads a sysfs attribute holding a text value. A missing
// attribute yields an empty string; not every node names its vendor.
func readSysfsString(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(content))
}

// EnumerateDevices scans /sys/bus/firewire/devices for nodes with a
// character device and collects their identity attributes.
func EnumerateDevices() ([]FwDeviceInfo, error) {
	const sysfsDir = "/sys/bus/firewire/devices"

	entries, err := os.ReadDir(sysfsDir)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", sysfsDir, err)
	}

	// Nodes are named fw<n>; unit directories fw<n>.<m> hang off them.
	nodeRegex := regexp.MustCompile(`^fw(\d+)$`)
	unitRegex := regexp.MustCompile(`^fw(\d+)\.\d+$`)

	deviceMap := make(map[int]*FwDeviceInfo)

	for _, entry := range entries {
		matches := nodeRegex.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		id, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}

		nodeDir := filepath.Join(sysfsDir, entry.Name())

		guid, err := readSysfsHex(filepath.Join(nodeDir, "guid"))
		if err != nil {
			continue
		}

		deviceMap[id] = &FwDeviceInfo{
			Name:   entry.Name(),
			Path:   filepath.Join("/dev", entry.Name()),
			GUID:   guid,
			Vendor: readSysfsString(filepath.Join(nodeDir, "vendor_name")),
			Model:  readSysfsString(filepath.Join(nodeDir, "model_name")),
		}
	}

	for _, entry := range entries {
		matches := unitRegex.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		id, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}

		device, ok := deviceMap[id]
		if !ok {
			continue
		}

		unitDir := filepath.Join(sysfsDir, entry.Name())

		specifier, err := readSysfsHex(filepath.Join(unitDir, "specifier_id"))
		if err != nil {
			continue
		}

		version, err := readSysfsHex(filepath.Join(unitDir, "version"))
		if err != nil {
			continue
		}

		device.Units = append(device.Units, FwUnitInfo{
			SpecifierID: uint32(specifier),
			Version:     uint32(version),
		})
	}

	var ids []int
	for id := range deviceMap {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	var result []FwDeviceInfo
	for _, id := range ids {
		result = append(result, *deviceMap[id])
	}

	return result, nil
}

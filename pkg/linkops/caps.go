package linkops

import (
	"os"
	"strconv"
	"strings"
)

// capSysAdmin is the CAP_SYS_ADMIN bit in the CapEff mask
const capSysAdmin = 21

// hasSysAdmin reports whether the process can create bind mounts:
// running as root or holding CAP_SYS_ADMIN in its effective set.
func hasSysAdmin() bool {
	if os.Geteuid() == 0 {
		return true
	}

	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "CapEff:") {
			continue
		}
		mask, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "CapEff:")), 16, 64)
		if err != nil {
			return false
		}
		return mask&(1<<capSysAdmin) != 0
	}
	return false
}

// inContainer reports whether the process appears to run inside a
// container, used to pick the right remediation hint for missing
// CAP_SYS_ADMIN.
func inContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}
	cgroup := string(data)
	return strings.Contains(cgroup, "docker") ||
		strings.Contains(cgroup, "lxc") ||
		strings.Contains(cgroup, "containerd")
}

// bindMountHint is the actionable message attached to a
// PERMISSION_DENIED from a bind mount attempt.
func bindMountHint() string {
	if inContainer() {
		return "run the container with --privileged or --cap-add SYS_ADMIN"
	}
	return "run as root or grant the binary CAP_SYS_ADMIN (sudo setcap cap_sys_admin+ep genlink)"
}

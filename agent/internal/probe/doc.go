// Package probe implements the agent's metric collectors.
//
// The system probe reads host-level stats through gopsutil, matching the
// readings the original monitor script shipped (CPU, memory, disk, network,
// uptime, CPU temperature). The prometheus probe scrapes a text exposition
// endpoint and reports the summed value per metric family.
package probe

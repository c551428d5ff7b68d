package scanner

import (
	"context"
	"fmt"
	"net"
	"testing"

	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
)

func listenConn(port uint32, pid int32) psnet.ConnectionStat {
	return psnet.ConnectionStat{
		Laddr:  psnet.Addr{IP: "0.0.0.0", Port: port},
		Status: statusListen,
		Pid:    pid,
	}
}

func newFakeSystemDetector(conns []psnet.ConnectionStat, names map[int32]string) *SystemPortDetector {
	d := NewSystemPortDetector(&logger.NopLogger{})
	d.connections = func(ctx context.Context) ([]psnet.ConnectionStat, error) {
		return conns, nil
	}
	d.processName = func(ctx context.Context, pid int32) (string, error) {
		name, ok := names[pid]
		if !ok {
			return "", fmt.Errorf("process %d not found", pid)
		}
		return name, nil
	}
	return d
}

func TestSystemPortDetector_DetectUsedPorts(t *testing.T) {
	conns := []psnet.ConnectionStat{
		listenConn(8080, 10),
		listenConn(22, 1),
		listenConn(8080, 11),
		{Laddr: psnet.Addr{Port: 5000}, Status: "ESTABLISHED"},
	}
	d := newFakeSystemDetector(conns, nil)

	ports, err := d.DetectUsedPorts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{22, 8080}, ports)
}

func TestSystemPortDetector_DetectUsedPorts_ScanFailure(t *testing.T) {
	d := NewSystemPortDetector(&logger.NopLogger{})
	d.connections = func(ctx context.Context) ([]psnet.ConnectionStat, error) {
		return nil, fmt.Errorf("permission denied")
	}

	_, err := d.DetectUsedPorts(context.Background())
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrProbeScanFailed, appErr.Code)
	assert.True(t, appErr.IsDegradation())
}

func TestSystemPortDetector_FindProcessOwner(t *testing.T) {
	conns := []psnet.ConnectionStat{
		listenConn(8080, 4242),
		listenConn(9090, 777),
		listenConn(7070, 0),
	}
	d := newFakeSystemDetector(conns, map[int32]string{4242: "nginx"})
	ctx := context.Background()

	owner, err := d.FindProcessOwner(ctx, 8080)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, int32(4242), owner.PID)
	assert.Equal(t, "nginx", owner.Name)

	// プロセス名が取れない場合は unknown
	owner, err = d.FindProcessOwner(ctx, 9090)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "unknown", owner.Name)

	owner, err = d.FindProcessOwner(ctx, 7070)
	require.NoError(t, err)
	assert.Nil(t, owner)

	owner, err = d.FindProcessOwner(ctx, 1234)
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestSystemPortDetector_IsPortInUse(t *testing.T) {
	d := NewSystemPortDetector(&logger.NopLogger{})
	var addresses []string
	d.listen = func(network, address string) (net.Listener, error) {
		addresses = append(addresses, network+" "+address)
		if address == "0.0.0.0:8080" {
			return nil, fmt.Errorf("address already in use")
		}
		return net.Listen("tcp", "127.0.0.1:0")
	}
	ctx := context.Background()

	inUse, err := d.IsPortInUse(ctx, 8080)
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = d.IsPortInUse(ctx, 8081)
	require.NoError(t, err)
	assert.False(t, inUse)

	assert.Equal(t, []string{"tcp 0.0.0.0:8080", "tcp 0.0.0.0:8081"}, addresses)

	_, err = d.IsPortInUse(ctx, 70000)
	assert.True(t, errors.HasCode(err, errors.ErrPortInvalid))
}

func TestSystemPortDetector_IsPortInUse_RealSocket(t *testing.T) {
	l, err := net.Listen("tcp", "0.0.0.0:0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	inUse, err := NewSystemPortDetector(&logger.NopLogger{}).IsPortInUse(context.Background(), port)
	require.NoError(t, err)
	assert.True(t, inUse)
}

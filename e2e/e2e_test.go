package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/killchain/app"
	"github.com/kilianp07/killchain/config"
	"github.com/kilianp07/killchain/core/model"
	coremqtt "github.com/kilianp07/killchain/core/mqtt"
	"github.com/kilianp07/killchain/infra/metrics"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("e2e tests skipped in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
}

// startMosquitto spins up a Mosquitto broker accepting anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// startInflux starts an InfluxDB 2.7 container initialised with the e2e
// organisation, bucket and token.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

func scenarioTable(t *testing.T) *model.AssignmentTable {
	t.Helper()
	tbl, err := model.NewTableBuilder(model.DefaultKillChain()).
		Set(1, 1, 1, 4).
		Set(2, 1, 1, 6).
		Build()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return tbl
}

func Test_E2E_PublishSchedule(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	cont, broker := startMosquitto(ctx, t)
	defer cont.Terminate(ctx) //nolint:errcheck

	received := make(chan coremqtt.ScheduleMessage, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	tok := sub.Subscribe("killchain/schedule/+", 1, func(_ paho.Client, m paho.Message) {
		var msg coremqtt.ScheduleMessage
		if err := json.Unmarshal(m.Payload(), &msg); err == nil {
			received <- msg
		}
	})
	if tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	cfg := config.Default()
	cfg.RunLog.Path = filepath.Join(t.TempDir(), "runs.jsonl")
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = broker
	cfg.MQTT.ClientID = "e2e-pub"
	cfg.MQTT.QoS = map[string]byte{"schedule": 1}
	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer svc.Close() //nolint:errcheck
	svc.Start(ctx)

	res, err := svc.Solve(ctx, "e2e", scenarioTable(t))
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	select {
	case msg := <-received:
		if msg.RunID != res.Outcome.RunID {
			t.Fatalf("run id %s, want %s", msg.RunID, res.Outcome.RunID)
		}
		if msg.Makespan != 10 || !msg.Optimal || len(msg.Assignments) != 2 {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("schedule not received")
	}
}

func Test_E2E_InfluxRunPoints(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cont, url := startInflux(ctx, t)
	defer cont.Terminate(ctx) //nolint:errcheck

	sink := metrics.NewInfluxSinkWithFallback(url, influxToken, influxOrg, influxBucket)
	if _, ok := sink.(*metrics.InfluxSink); !ok {
		t.Fatalf("influx health check failed, got %T", sink)
	}

	cfg := config.Default()
	cfg.RunLog.Path = filepath.Join(t.TempDir(), "runs.jsonl")
	svc, err := app.New(cfg, app.WithMetricsSink(sink))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer svc.Close() //nolint:errcheck

	res, err := svc.Solve(ctx, "e2e", scenarioTable(t))
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	client := influxdb2.NewClient(url, influxToken)
	defer client.Close()
	flux := fmt.Sprintf(`from(bucket:"%s") |> range(start:-10m) |> filter(fn: (r) => r.run_id == "%s")`,
		influxBucket, res.Outcome.RunID)
	result, err := client.QueryAPI(influxOrg).Query(ctx, flux)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer result.Close()
	measurements := map[string]int{}
	for result.Next() {
		measurements[result.Record().Measurement()]++
	}
	if measurements["scheduling_run"] == 0 {
		t.Fatalf("no scheduling_run points: %v", measurements)
	}
	if measurements["phase_assignment"] == 0 {
		t.Fatalf("no phase_assignment points: %v", measurements)
	}
}

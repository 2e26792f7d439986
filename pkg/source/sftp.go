// pkg/source/sftp.go

package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"AveCompact/pkg/utils"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type sftpSource struct {
	host string
	path string
	conf *ssh.ClientConfig
}

func init() {
	Register("sftp", newSftpSource)
}

// newSftpSource parses user@host[:port]/path. The password comes from the
// URL or SFTP_PASSWORD, a private key from SFTP_PRIVATE_KEY.
func newSftpSource(_, addr string, conf *Config) (Source, error) {
	u, err := url.Parse("sftp://" + addr)
	if err != nil {
		return nil, fmt.Errorf("parse sftp address %s: %s", addr, err)
	}
	if u.Host == "" || u.Path == "" || u.Path == "/" {
		return nil, fmt.Errorf("sftp address %s needs a host and a path", addr)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "22")
	}

	user := u.User.Username()
	if user == "" {
		user = os.Getenv("USER")
	}
	var auth []ssh.AuthMethod
	if pw, ok := u.User.Password(); ok {
		auth = append(auth, ssh.Password(pw))
	} else if pw := os.Getenv("SFTP_PASSWORD"); pw != "" {
		auth = append(auth, ssh.Password(pw))
	}
	if keyPath := os.Getenv("SFTP_PRIVATE_KEY"); keyPath != "" {
		pem, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("load private key from %s: %s", keyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %s", keyPath, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	return &sftpSource{
		host: host,
		path: u.Path,
		conf: &ssh.ClientConfig{
			User:            user,
			Auth:            auth,
			HostKeyCallback: hostKeyCallback(),
			Timeout:         timeout,
		},
	}, nil
}

func hostKeyCallback() ssh.HostKeyCallback {
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".ssh", "known_hosts")
		if utils.Exists(p) {
			cb, err := knownhosts.New(p)
			if err == nil {
				return cb
			}
			logger.Warnf("load %s: %s", p, err)
		}
	}
	logger.Warnf("no usable known_hosts, sftp host keys are not verified")
	return ssh.InsecureIgnoreHostKey()
}

func (s *sftpSource) String() string {
	return fmt.Sprintf("sftp://%s@%s%s", s.conf.User, s.host, s.path)
}

func (s *sftpSource) Name() string {
	return s.path
}

type sftpFile struct {
	*sftp.File
	client *sftp.Client
	conn   *ssh.Client
}

func (f *sftpFile) Close() error {
	err := f.File.Close()
	_ = f.client.Close()
	_ = f.conn.Close()
	return err
}

func (s *sftpSource) dial(ctx context.Context) (*ssh.Client, error) {
	d := net.Dialer{Timeout: s.conf.Timeout}
	nc, err := d.DialContext(ctx, "tcp", s.host)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
	}
	c, chans, reqs, err := ssh.NewClientConn(nc, s.host, s.conf)
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	_ = nc.SetDeadline(time.Time{})
	return ssh.NewClient(c, chans, reqs), nil
}

func (s *sftpSource) Open(ctx context.Context) (io.ReadCloser, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	f, err := client.Open(s.path)
	if err != nil {
		_ = client.Close()
		_ = conn.Close()
		if os.IsNotExist(err) {
			return nil, permanentError{err}
		}
		return nil, err
	}
	return &sftpFile{f, client, conn}, nil
}
